package ethereum

// ERC20ABI exposes the unexported ABI to the external test package.
const ERC20ABI = erc20ABI
