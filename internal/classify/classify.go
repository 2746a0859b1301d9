// Package classify tags items with a coarse web3 topic from keyword
// matching. It runs locally so delivery formatting never needs a model call.
package classify

import "strings"

const (
	TopicDeFi        = "defi"
	TopicNFT         = "nft"
	TopicLayer2      = "layer2"
	TopicTrading     = "trading"
	TopicDevelopment = "development"
	TopicOther       = "other"
)

var topicKeywords = []struct {
	topic    string
	keywords []string
}{
	{TopicLayer2, []string{
		"layer 2", "layer2", "l2", "rollup", "optimism", "arbitrum", "zksync",
		"starknet", "base chain", "scaling", "zk-rollup", "zkevm",
	}},
	{TopicDeFi, []string{
		"defi", "lending", "liquidity", "yield", "staking", "amm", "dex",
		"uniswap", "aave", "curve", "stablecoin", "tvl", "vault",
	}},
	{TopicNFT, []string{
		"nft", "collectible", "opensea", "mint", "pfp", "royalt", "ordinals",
	}},
	{TopicTrading, []string{
		"price", "rally", "etf", "futures", "liquidation", "market cap",
		"all-time high", "bearish", "bullish", "exchange listing", "volume",
	}},
	{TopicDevelopment, []string{
		"upgrade", "testnet", "mainnet", "protocol", "eip", "fork", "audit",
		"sdk", "developer", "github", "whitepaper", "smart contract",
	}},
}

// Topic returns the first topic whose keywords appear in the text, scanning
// in a fixed precedence order.
func Topic(text string) string {
	lowered := strings.ToLower(text)
	for _, tk := range topicKeywords {
		for _, kw := range tk.keywords {
			if strings.Contains(lowered, kw) {
				return tk.topic
			}
		}
	}
	return TopicOther
}
