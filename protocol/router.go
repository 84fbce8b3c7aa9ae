package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"storefront-realtime/domain"
)

var (
	ErrMalformed    = errors.New("malformed event")
	ErrUnknownEvent = errors.New("unknown event type")
)

type pagePayload struct {
	Page string `json:"page"`
}

type buyPayload struct {
	Nickname  string `json:"nickname"`
	GoodsID   string `json:"goodsId"`
	GoodsName string `json:"goodsName"`
}

// Router turns raw inbound frames into intents. It never panics on bad input;
// every rejection is an error wrapping ErrMalformed or ErrUnknownEvent.
type Router struct{}

func NewRouter() *Router {
	return &Router{}
}

func (r *Router) Route(data []byte) (domain.Intent, error) {
	var env domain.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch env.Type {
	case domain.EventPageChanged:
		var p pagePayload
		if err := decode(env.Data, &p); err != nil {
			return nil, err
		}
		if strings.TrimSpace(p.Page) == "" {
			return nil, fmt.Errorf("%w: page-changed without page", ErrMalformed)
		}
		return domain.PageChanged{Page: p.Page}, nil

	case domain.EventBuy:
		var p buyPayload
		if err := decode(env.Data, &p); err != nil {
			return nil, err
		}
		var missing []string
		if p.Nickname == "" {
			missing = append(missing, "nickname")
		}
		if p.GoodsID == "" {
			missing = append(missing, "goodsId")
		}
		if p.GoodsName == "" {
			missing = append(missing, "goodsName")
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("%w: buy missing %s", ErrMalformed, strings.Join(missing, ", "))
		}
		return domain.PurchaseRequested{Nickname: p.Nickname, GoodsID: p.GoodsID, GoodsName: p.GoodsName}, nil

	case domain.EventDisconnect:
		return domain.Disconnected{}, nil

	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return fmt.Errorf("%w: missing data", ErrMalformed)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
