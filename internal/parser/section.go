package parser

// State identifies which logical section of the statement is active.
type State int

const (
	StateInitial State = iota
	StateInvestorInfo
	StateHoldings
	StateTransactions
	StateEnd
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateInvestorInfo:
		return "investor_info"
	case StateHoldings:
		return "holdings_summary"
	case StateTransactions:
		return "transaction_details"
	case StateEnd:
		return "end"
	}
	return "unknown"
}

// transition moves the FSM to `to` when the classified line carries
// `on`. Transitions are keyword-driven only; line position and page
// number never matter.
type transition struct {
	on Marker
	to State
}

// transitionTable is evaluated top-down per state; the first matching
// marker wins. The machine is monotonic: every edge moves forward, so a
// holdings block split across pages resumes via continuation markers
// rather than a state regression.
var transitionTable = map[State][]transition{
	StateInitial: {
		{MarkerEnd, StateEnd},
		{MarkerInvestorInfo, StateInvestorInfo},
		// Some layouts omit the explicit investor header; a PAN sighting
		// means the investor block has started.
		{MarkerPAN, StateInvestorInfo},
		{MarkerHoldingsHeader, StateHoldings},
	},
	StateInvestorInfo: {
		{MarkerEnd, StateEnd},
		{MarkerHoldingsHeader, StateHoldings},
		{MarkerTransactionHeader, StateTransactions},
	},
	StateHoldings: {
		{MarkerEnd, StateEnd},
		{MarkerTransactionHeader, StateTransactions},
	},
	StateTransactions: {
		{MarkerEnd, StateEnd},
	},
	StateEnd: {},
}

// SectionDetector tracks the active section across the line stream.
type SectionDetector struct {
	state State
}

// NewSectionDetector starts in StateInitial.
func NewSectionDetector() *SectionDetector {
	return &SectionDetector{state: StateInitial}
}

// State returns the current state.
func (d *SectionDetector) State() State {
	return d.state
}

// Advance feeds one classified line to the FSM and returns the (possibly
// unchanged) state. Lines that match no transition marker leave the state
// alone; the caller hands them to the extractor for the current state.
func (d *SectionDetector) Advance(m Marker) State {
	for _, tr := range transitionTable[d.state] {
		if m.Has(tr.on) {
			d.state = tr.to
			break
		}
	}
	return d.state
}
