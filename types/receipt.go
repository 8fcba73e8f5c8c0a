package types

// Receipt is the resource bill of a single transaction.
type Receipt struct {
	_                 struct{} `cbor:",toarray"`
	NetUsage          uint64 // bandwidth points consumed
	NetFee            uint64 // paid from balance when bandwidth was not available
	EnergyUsage       uint64 // caller's energy drawn from quota
	EnergyFee         uint64 // caller's balance burned for energy
	OriginEnergyUsage uint64
	EnergyUsageTotal  uint64
	Result            ResultCode
}

func NewReceipt() *Receipt {
	return &Receipt{}
}

// AddNetBill accumulates bandwidth bill, transaction with multiple contracts
// is billed per contract.
func (r *Receipt) AddNetBill(usage, fee uint64) {
	r.NetUsage += usage
	r.NetFee += fee
}

// Fee returns total amount charged from balances.
func (r *Receipt) Fee() uint64 {
	return r.NetFee + r.EnergyFee
}
