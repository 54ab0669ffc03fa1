package board_api_client

import (
	"github.com/gamenight/liveboard/go/clients"
)

// BoardApiClient talks to the authoritative board backend over HTTP.
// It covers the single-call sync snapshot, the per-entity fallback
// reads, and every mutation endpoint.
type BoardApiClient struct {
	*clients.BaseClient
}

func NewBoardApiClient(baseURL string) *BoardApiClient {
	return &BoardApiClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}
}
