package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/stellargate-io/bridge-go/cmd"
	"github.com/stellargate-io/bridge-go/logconfig"
)

const (
	ENV_CONFIG_FILE_PATH = "BRIDGE_CONFIG"
)

func main() {
	logconfig.ConfigProductionLogger()

	// Tool to read environment variables
	viper.AutomaticEnv()

	// Accessing an environment variable of configuration file location.
	_config_file := viper.GetString(ENV_CONFIG_FILE_PATH)
	fmt.Printf("Bridge server configuration file = %s\n", _config_file)

	// See if file exists
	if !cmd.FileExists(_config_file) {
		fmt.Printf("Bridge server configuration file not found: %s\n", _config_file)
		return
	}

	// Read from config file.
	success := initializeViper(_config_file)
	if !success {
		return
	}

	// Make the configuration
	bsc := PrepareBridgeServerConfig()
	if bsc == nil {
		fmt.Printf("Error loading bridge server configuration\n")
		return
	}

	fmt.Println("Starting bridge server... press Ctrl+C to kill the server")
	// Start server and block.
	cmd.StartBridgeServerAndWait(bsc)
}

func initializeViper(filePath string) bool {
	viper.SetConfigFile(filePath)
	if err := viper.ReadInConfig(); err != nil {
		fmt.Printf("Error reading configuration file, %s", err)
		return false
	}
	return true
}

// PrepareBridgeServerConfig reads configuration variables and returns a BridgeServerConfig.
func PrepareBridgeServerConfig() *cmd.BridgeServerConfig {
	return &cmd.BridgeServerConfig{
		// ledger side
		DbFilePath: viper.GetString("DB_FILE_PATH"),

		// stellar side
		HorizonUrl:           viper.GetString("STELLAR_HORIZON_URL"),
		StellarNetwork:       viper.GetString("STELLAR_NETWORK"),
		StellarSignerUrl:     viper.GetString("STELLAR_SIGNER_URL"),
		StellarCustodialAddr: viper.GetString("STELLAR_CUSTODIAL_ADDR"),

		// evm side
		Eth:      evmChainConfig("ETH"),
		Base:     evmChainConfig("BASE"),
		Optimism: evmChainConfig("OPTIMISM"),

		// http side
		HttpIp:   viper.GetString("HTTP_IP"),
		HttpPort: viper.GetString("HTTP_PORT"),

		ApiTokens: viper.GetStringMapString("API_TOKENS"),
	}
}

// evmChainConfig reads one chain's block of variables, e.g. ETH_RPC_URL.
func evmChainConfig(prefix string) cmd.EVMChainConfig {
	return cmd.EVMChainConfig{
		RpcUrl:         viper.GetString(prefix + "_RPC_URL"),
		ChainId:        viper.GetInt64(prefix + "_CHAIN_ID"),
		Confirmations:  viper.GetUint64(prefix + "_CONFIRMATIONS"),
		CustodialAddr:  viper.GetString(prefix + "_CUSTODIAL_ADDR"),
		CustodialPrivs: viper.GetStringSlice(prefix + "_CUSTODIAL_PRIVS"),
	}
}
