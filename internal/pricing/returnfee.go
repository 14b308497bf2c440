package pricing

// Return fee schedule defaults. All amounts are rupees.
const (
	DefaultEasyReturnBaseFee  = 160.0
	DefaultEasyReturnRate     = 0.05
	DefaultReplacementFlatFee = 30.0
	DefaultCODAdvanceRate     = 0.10
)

// FeeSchedule parameterises the return-fee formulas and the COD advance rate.
// The zero value is not usable; call DefaultFeeSchedule for source defaults.
type FeeSchedule struct {
	EasyReturnBaseFee  float64
	EasyReturnRate     float64
	ReplacementFlatFee float64
	CODAdvanceRate     float64
}

// DefaultFeeSchedule returns the schedule the storefront ships with.
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		EasyReturnBaseFee:  DefaultEasyReturnBaseFee,
		EasyReturnRate:     DefaultEasyReturnRate,
		ReplacementFlatFee: DefaultReplacementFlatFee,
		CODAdvanceRate:     DefaultCODAdvanceRate,
	}
}

// ReturnFeePolicy makes the live/frozen fee asymmetry explicit: easy-return
// fees are recomputed from the current effective price and quantity on every
// pricing pass, while replacement and self-shipping fees are frozen at the
// value captured when the return type was selected.
type ReturnFeePolicy struct {
	live   bool
	frozen float64
}

// LivePolicy recomputes the fee on every pass.
func LivePolicy() ReturnFeePolicy { return ReturnFeePolicy{live: true} }

// FrozenPolicy always yields the captured amount.
func FrozenPolicy(amount float64) ReturnFeePolicy { return ReturnFeePolicy{frozen: num(amount)} }

// Fee resolves the fee for a line given its current effective line value.
func (p ReturnFeePolicy) Fee(sched FeeSchedule, lineValue float64) float64 {
	if p.live {
		return sched.EasyReturnBaseFee + sched.EasyReturnRate*num(lineValue)
	}
	return p.frozen
}

// PolicyFor maps a line's return type to its fee policy. Self-shipping and
// unset return types carry no fee. A replacement line that was stored without
// a captured fee falls back to the schedule's flat fee.
func PolicyFor(item LineItem, sched FeeSchedule) (ReturnFeePolicy, bool) {
	switch item.ReturnType {
	case ReturnEasyReturn:
		return LivePolicy(), true
	case ReturnEasyReplacement:
		amount := item.CapturedReturnFee
		if num(amount) == 0 {
			amount = sched.ReplacementFlatFee
		}
		return FrozenPolicy(amount), true
	default:
		return ReturnFeePolicy{}, false
	}
}
