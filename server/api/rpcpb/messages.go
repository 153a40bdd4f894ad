package rpcpb

type NextRequest struct {
	Count uint32 `json:"count,omitempty"`
}

type NextResponse struct {
	Node uint32   `json:"node"`
	IDs  []string `json:"ids"`
}

type InspectRequest struct {
	ID string `json:"id"`
}

type InspectResponse struct {
	ID        string `json:"id"`
	Timestamp uint64 `json:"timestamp"`
	Time      string `json:"time"` // RFC 3339 with nanoseconds
	Sequence  uint32 `json:"sequence"`
	Node      uint32 `json:"node"`
	Version   uint32 `json:"version"`
	Variant   uint32 `json:"variant"`
}

type StatusRequest struct{}

type StatusResponse struct {
	Name          string `json:"name"`
	Node          uint32 `json:"node"`
	Issued        uint64 `json:"issued"`
	Exhausted     uint64 `json:"exhausted"`
	Regressions   uint64 `json:"regressions"`
	LastTimestamp uint64 `json:"lastTimestamp"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
}
