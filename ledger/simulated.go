package ledger

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

func getMemoryDB() *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		logger.Fatal(err)
	}
	// Every pooled connection to :memory: would open its own database;
	// pin the pool to one connection.
	db.SetMaxOpenConns(1)
	return db
}

// RandCreateParams returns plausible create params for tests.
func RandCreateParams(owner string) CreateParams {
	return CreateParams{
		OwnerUserID:   owner,
		FromChain:     "stellar",
		ToChain:       "ethereum",
		Token:         "XLM",
		FromAddress:   "GDUKMGUGDZQK6YHYA5Z6AY2G4XDSZPSZ3SW5UN3ARVMO6QSRDWP5YLEX",
		ToAddress:     "0x71C7656EC7ab88b098defB751B7401B5f6d8976F",
		LockAmount:    decimal.NewFromInt(10),
		ReleaseAmount: decimal.RequireFromString("0.0003"),
	}
}
