package domain

const (
	// Collection slugs
	ORIGINS_SLUG = "gu-origins"
	UNDEAD_SLUG  = "genuine-undead"

	// Contract addresses
	ORIGINS_CONTRACT_ADDRESS = "0x209e639a0EC166Ac7a1A4bA41968fa967dB30221"
	UNDEAD_CONTRACT_ADDRESS  = "0x39509d8e1dd96cc8bad301ea65c75c7deb52374c"

	// ORIGINS_FIXED_SUPPLY is the historical, never-changing supply of the Origins collection
	ORIGINS_FIXED_SUPPLY int64 = 9993

	// DEFAULT_BURNED_COUNT is the number of tokens destroyed during migration instead of
	// being re-minted into the destination collection
	DEFAULT_BURNED_COUNT int64 = 26

	// Provider names used by the rate limit proxy
	PROVIDER_OPENSEA   = "opensea"
	PROVIDER_COINGECKO = "coingecko"
)

// DefaultCollections returns the two tracked collections
func DefaultCollections() []Collection {
	originsSupply := ORIGINS_FIXED_SUPPLY
	return []Collection{
		{
			Slug:            ORIGINS_SLUG,
			DisplayName:     "GU Origins",
			ContractAddress: ORIGINS_CONTRACT_ADDRESS,
			Chain:           ChainEthereumMainnet,
			FixedSupply:     &originsSupply,
		},
		{
			Slug:            UNDEAD_SLUG,
			DisplayName:     "Genuine Undead",
			ContractAddress: UNDEAD_CONTRACT_ADDRESS,
			Chain:           ChainEthereumMainnet,
		},
	}
}

// DefaultMigrationPairs returns the Origins -> Undead migration pair
func DefaultMigrationPairs() []MigrationPair {
	return []MigrationPair{{From: ORIGINS_SLUG, To: UNDEAD_SLUG}}
}
