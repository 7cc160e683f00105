package contract

// BondedToken is an ERC-20 sold and bought back one whole unit at a time
// against a linear price curve. buy() is payable and needs the exact price.
func init() {
	RegisterBuiltin(BuiltinKind{
		ID:          KindBondedToken,
		Name:        "BondedToken (linear bonding curve)",
		Description: "ERC-20 minted by buy() and burned by sell() at price = supply * slope. Deployed via `w3bond market deploy`.",
		ABI:         bondedTokenABI,
	})
}

var bondedTokenABI = concat(erc20Reads, []ABIEntry{
	{
		Name: "getBuyPrice", Type: "function",
		Outputs:         []ABIParam{{Type: "uint256"}},
		StateMutability: "view",
	},
	{
		Name: "getSellPrice", Type: "function",
		Outputs:         []ABIParam{{Type: "uint256"}},
		StateMutability: "view",
	},
	{
		Name: "slopeNumerator", Type: "function",
		Outputs:         []ABIParam{{Type: "uint256"}},
		StateMutability: "view",
	},
	{
		Name: "slopeDenominator", Type: "function",
		Outputs:         []ABIParam{{Type: "uint256"}},
		StateMutability: "view",
	},
}, erc20Writes, []ABIEntry{
	{
		Name: "buy", Type: "function",
		StateMutability: "payable",
	},
	{
		Name: "sell", Type: "function",
		StateMutability: "nonpayable",
	},
}, erc20Events, []ABIEntry{
	{
		Name: "Bought", Type: "event",
		Inputs: []ABIParam{
			{Name: "buyer", Type: "address", Indexed: true},
			{Name: "amount", Type: "uint256"},
			{Name: "ethPaid", Type: "uint256"},
		},
	},
	{
		Name: "Sold", Type: "event",
		Inputs: []ABIParam{
			{Name: "seller", Type: "address", Indexed: true},
			{Name: "amount", Type: "uint256"},
			{Name: "ethReceived", Type: "uint256"},
		},
	},
}, erc20Writes, erc20Events)
