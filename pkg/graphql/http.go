package graphql

import (
	"encoding/json"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/communeos/bridgenet/pkg/logging"
)

type request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// NewHandler returns an http.Handler that executes queries against the
// read-only schema. Only POST with a JSON body is accepted.
func NewHandler(r *Resolver, log logging.Logger) (http.Handler, error) {
	schema, err := NewSchema(r)
	if err != nil {
		return nil, err
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var body request
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  body.Query,
			OperationName:  body.OperationName,
			VariableValues: body.Variables,
			Context:        req.Context(),
		})
		if len(result.Errors) > 0 {
			log.Debug("graphql query returned errors",
				logging.Component("graphql"),
				logging.Int("error_count", len(result.Errors)))
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			log.Warn("failed to encode graphql response",
				logging.Component("graphql"),
				logging.Error(err))
		}
	}), nil
}
