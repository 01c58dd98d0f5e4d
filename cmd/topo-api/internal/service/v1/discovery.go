package v1

import (
	"time"

	humanize "github.com/dustin/go-humanize"

	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/discovery"
)

type DiscoveryStatusResponse struct {
	Interval     string     `json:"interval" description:"the probing interval"`
	LastCycle    *time.Time `json:"last_cycle,omitempty" description:"when the last probe cycle ran" optional:"true"`
	LastCycleAgo string     `json:"last_cycle_ago,omitempty" description:"how long ago the last probe cycle ran" optional:"true"`
	CyclesTotal  uint64     `json:"cycles_total" description:"the number of completed probe cycles"`
	ProbesSent   uint64     `json:"probes_sent" description:"the number of probes sent since startup"`
}

func NewDiscoveryStatusResponse(st discovery.Status) *DiscoveryStatusResponse {
	resp := &DiscoveryStatusResponse{
		Interval:    st.Interval.String(),
		CyclesTotal: st.CyclesTotal,
		ProbesSent:  st.ProbesSent,
	}

	if !st.LastCycle.IsZero() {
		last := st.LastCycle
		resp.LastCycle = &last
		resp.LastCycleAgo = humanize.Time(last)
	}
	return resp
}
