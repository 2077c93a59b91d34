package task

import "github.com/google/uuid"

// baseOps are the operations every task exposes through the bridge. Concrete
// tasks add their section-ingest operations on top when they register.
func (c *Controller) baseOps() map[string]Op {
	return map[string]Op{
		"get_localisations": func(payload map[string]any) (Reply, error) {
			index, err := c.GetLocalisations(PayloadBool(payload, "force_rediscovery"))
			if err != nil {
				return Reply{}, err
			}
			return Reply{Value: index}, nil
		},
		"load_localisation": func(payload map[string]any) (Reply, error) {
			label, err := c.requireString(payload, "localisation")
			if err != nil {
				return Reply{}, err
			}
			bundle, err := c.LoadLocalisation(label,
				PayloadStrings(payload, "sections"), PayloadBool(payload, "force_reload"))
			if err != nil {
				return Reply{}, err
			}
			return Reply{Value: bundle}, nil
		},
		"new": func(payload map[string]any) (Reply, error) {
			id, err := c.New(payload)
			if err != nil {
				return Reply{}, err
			}
			return Reply{Value: id.String(), Location: c.TakeLocation()}, nil
		},
		"response_exists": func(payload map[string]any) (Reply, error) {
			id, err := c.ResponseID(payload)
			if err != nil {
				return Reply{}, err
			}
			return Reply{Value: c.ResponseExists(id)}, nil
		},
		"discard": func(payload map[string]any) (Reply, error) {
			id, err := c.ResponseID(payload)
			if err != nil {
				return Reply{}, err
			}
			if err := c.Discard(id); err != nil {
				return Reply{}, err
			}
			return Reply{Value: true}, nil
		},
		"is_complete": func(payload map[string]any) (Reply, error) {
			id, err := c.ResponseID(payload)
			if err != nil {
				return Reply{}, err
			}
			complete, err := c.IsComplete(id)
			if err != nil {
				return Reply{}, err
			}
			return Reply{Value: complete}, nil
		},
		"store": func(payload map[string]any) (Reply, error) {
			id, err := c.ResponseID(payload)
			if err != nil {
				return Reply{}, err
			}
			if err := c.Store(id); err != nil {
				return Reply{}, err
			}
			return Reply{Value: true}, nil
		},
		"end": func(payload map[string]any) (Reply, error) {
			id, err := c.ResponseID(payload)
			if err != nil {
				return Reply{}, err
			}
			href, err := c.End(id)
			if err != nil {
				return Reply{}, err
			}
			return Reply{Value: href, Location: c.TakeLocation()}, nil
		},
	}
}

// ResponseID extracts and casts the response_id argument of an operation
// payload.
func (c *Controller) ResponseID(payload map[string]any) (uuid.UUID, error) {
	raw, ok := payload["response_id"]
	if !ok {
		return uuid.Nil, &MissingKeysError{Task: c.Name, Keys: []string{"response_id"}}
	}
	return CastUUID(c.Name, raw)
}

func (c *Controller) requireString(payload map[string]any, key string) (string, error) {
	raw, ok := payload[key]
	if !ok {
		return "", &MissingKeysError{Task: c.Name, Keys: []string{key}}
	}
	s, ok := raw.(string)
	if !ok {
		return "", &InvalidValueError{Task: c.Name, Field: key, Reason: "expected a string"}
	}
	return s, nil
}

// PayloadBool reads an optional boolean argument, tolerating the usual form
// encodings of true.
func PayloadBool(payload map[string]any, key string) bool {
	switch x := payload[key].(type) {
	case bool:
		return x
	case string:
		return x == "true" || x == "1" || x == "on" || x == "yes"
	case float64:
		return x == 1
	}
	return false
}

// PayloadStrings reads an optional string-list argument.
func PayloadStrings(payload map[string]any, key string) []string {
	raw, ok := payload[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
