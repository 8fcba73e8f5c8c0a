package properties

type (
	// Uint64Key names a numeric dynamic property.
	Uint64Key string
	// BoolKey names a feature flag, stored as 0/1.
	BoolKey string
)

// bandwidth
const (
	TotalNetLimit                 Uint64Key = "TOTAL_NET_LIMIT"
	TotalNetWeight                Uint64Key = "TOTAL_NET_WEIGHT"
	FreeNetLimit                  Uint64Key = "FREE_NET_LIMIT"
	PublicNetLimit                Uint64Key = "PUBLIC_NET_LIMIT"
	PublicNetUsage                Uint64Key = "PUBLIC_NET_USAGE"
	PublicNetTime                 Uint64Key = "PUBLIC_NET_TIME"
	TransactionFee                Uint64Key = "TRANSACTION_FEE"
	CreateAccountFee              Uint64Key = "CREATE_ACCOUNT_FEE"
	CreateNewAccountBandwidthRate Uint64Key = "CREATE_NEW_ACCOUNT_BANDWIDTH_RATE"
)

// energy
const (
	TotalEnergyLimit                 Uint64Key = "TOTAL_ENERGY_LIMIT"
	TotalEnergyCurrentLimit          Uint64Key = "TOTAL_ENERGY_CURRENT_LIMIT"
	TotalEnergyTargetLimit           Uint64Key = "TOTAL_ENERGY_TARGET_LIMIT"
	TotalEnergyWeight                Uint64Key = "TOTAL_ENERGY_WEIGHT"
	TotalEnergyAverageUsage          Uint64Key = "TOTAL_ENERGY_AVERAGE_USAGE"
	TotalEnergyAverageTime           Uint64Key = "TOTAL_ENERGY_AVERAGE_TIME"
	AdaptiveResourceLimitMultiplier  Uint64Key = "ADAPTIVE_RESOURCE_LIMIT_MULTIPLIER"
	BlockEnergyUsage                 Uint64Key = "BLOCK_ENERGY_USAGE"
	EnergyFee                        Uint64Key = "ENERGY_FEE"
	MaxCpuTimeOfOneTx                Uint64Key = "MAX_CPU_TIME_OF_ONE_TX"
	AdaptiveResourceLimitTargetRatio Uint64Key = "ADAPTIVE_RESOURCE_LIMIT_TARGET_RATIO"
)

// running totals and chain head
const (
	TotalTransactionCost       Uint64Key = "TOTAL_TRANSACTION_COST"
	TotalCreateAccountCost     Uint64Key = "TOTAL_CREATE_ACCOUNT_COST"
	TotalEnergyFee             Uint64Key = "TOTAL_ENERGY_FEE"
	BurnedFee                  Uint64Key = "BURNED_FEE"
	LatestBlockHeaderTimestamp Uint64Key = "LATEST_BLOCK_HEADER_TIMESTAMP"
	LatestBlockHeaderNumber    Uint64Key = "LATEST_BLOCK_HEADER_NUMBER"
)

// feature flags
const (
	SupportVM                  BoolKey = "SUPPORT_VM"
	AllowTvmConstantinople     BoolKey = "ALLOW_TVM_CONSTANTINOPLE"
	AllowAdaptiveEnergy        BoolKey = "ALLOW_ADAPTIVE_ENERGY"
	AllowBlackHoleOptimization BoolKey = "ALLOW_BLACKHOLE_OPTIMIZATION"
	AllowOriginEnergyLimit     BoolKey = "ALLOW_ORIGIN_ENERGY_LIMIT"
)
