package mints

// Well-known Solana token mint addresses (mainnet).
var (
	WSOLMint     = "So11111111111111111111111111111111111111112"
	USDCMint     = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDTMint     = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
	WETHMint     = "7vfCXTUXx5WJV5JADk17DUJ4ksgau7utNKj4b963voxs" // Wormhole
	FARTCOINMint = "9BB6NFEcjBCtnNLFko2FqVQBq8HHM13kCyYcdQbgpump"
	POPCATMint   = "7GCihgDB8fe6KNjn2MYtkzZcRjQy3t9GHdC8uHYmW2hr"
)

// DefaultTokens returns the tracked tokens in node id order.
func DefaultTokens() []Token {
	return []Token{
		{Symbol: "WSOL", Mint: WSOLMint, Decimals: 9},
		{Symbol: "USDC", Mint: USDCMint, Decimals: 6},
		{Symbol: "USDT", Mint: USDTMint, Decimals: 6},
		{Symbol: "WETH", Mint: WETHMint, Decimals: 8},
		{Symbol: "FARTCOIN", Mint: FARTCOINMint, Decimals: 6},
		{Symbol: "POPCAT", Mint: POPCATMint, Decimals: 9},
	}
}

// DefaultRoutes returns the tracked routes. Order matters: it fixes edge
// indices and therefore traversal order.
func DefaultRoutes() []Route {
	return []Route{
		// Majors
		{A: "WSOL", B: "USDC"},
		{A: "WSOL", B: "USDT"},
		{A: "USDC", B: "USDT"},

		// WETH
		{A: "USDC", B: "WETH"},
		{A: "USDT", B: "WETH"},
		{A: "WSOL", B: "WETH"},

		// Memecoins
		{A: "USDC", B: "FARTCOIN"},
		{A: "USDT", B: "FARTCOIN"},
		{A: "WSOL", B: "FARTCOIN"},
		{A: "USDC", B: "POPCAT"},
		{A: "USDT", B: "POPCAT"},
		{A: "WSOL", B: "POPCAT"},
	}
}
