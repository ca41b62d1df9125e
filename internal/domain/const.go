package domain

const (
	// Blockchain constants
	ETHEREUM_ZERO_ADDRESS = "0x0000000000000000000000000000000000000000"

	// Token amounts are normalized assuming the ERC-20 default precision
	DEFAULT_TOKEN_DECIMALS = 18

	// Scores strictly below this threshold mark a token as risky
	RISK_SCORE_THRESHOLD = 70.0
)
