package board_api_client

const (
	// Reads
	SyncEndpoint       = "/sync"
	TeamsEndpoint      = "/teams"
	EventsEndpoint     = "/events"
	AppStateEndpoint   = "/app-state"
	ChallengesEndpoint = "/challenges"

	// Mutations
	CountdownEndpoint  = "/countdown"
	TorchLightEndpoint = "/torch/light"
)
