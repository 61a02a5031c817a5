package distribution

import "math/bits"

// Payout is the exact integer split of a settlement amount. The creator
// cut absorbs every rounding remainder, so summing all fields always
// reproduces the input amount: floor rounding loses value to the content
// owner, never to the platform or collaborators.
type Payout struct {
	Platform      uint64
	Collaborators []uint64
	Creator       uint64
}

// Total returns the sum of all cuts.
func (p *Payout) Total() uint64 {
	total := p.Platform + p.Creator
	for _, cut := range p.Collaborators {
		total += cut
	}
	return total
}

// cutBps computes floor(total * bps / 10000) in full 128-bit intermediate
// precision. bps must not exceed BpsDenominator.
func cutBps(total uint64, bps uint16) (uint64, error) {
	if uint64(bps) > BpsDenominator {
		return 0, ErrNumericalOverflow
	}
	hi, lo := bits.Mul64(total, uint64(bps))
	// hi < BpsDenominator holds because bps <= BpsDenominator, so the
	// quotient always fits in 64 bits.
	quotient, _ := bits.Div64(hi, lo, BpsDenominator)
	return quotient, nil
}

// ComputeCuts splits totalAmount according to the configuration. Each
// named cut is the floor of its bps share; the creator receives the
// remainder, so Payout.Total() == totalAmount for every input.
func ComputeCuts(totalAmount uint64, cfg *SplitConfig) (*Payout, error) {
	if totalAmount == 0 {
		return nil, ErrZeroAmount
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	platform, err := cutBps(totalAmount, cfg.PlatformFeeBps)
	if err != nil {
		return nil, err
	}
	payout := &Payout{
		Platform:      platform,
		Collaborators: make([]uint64, len(cfg.Collaborators)),
	}
	remaining := totalAmount - platform
	for i, collab := range cfg.Collaborators {
		cut, err := cutBps(totalAmount, collab.ShareBps)
		if err != nil {
			return nil, err
		}
		if cut > remaining {
			return nil, ErrNumericalOverflow
		}
		payout.Collaborators[i] = cut
		remaining -= cut
	}
	payout.Creator = remaining
	return payout, nil
}
