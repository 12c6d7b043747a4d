package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	companion "github.com/kitsuneworks/companion-engine-go"
)

// EmbedFunc turns text into an embedding vector. Callers plug in their own
// provider; the store never talks to a model API itself.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// QdrantLongTermStore implements companion.LongTermStore on Qdrant's REST
// API, giving memory search real semantic similarity instead of keyword
// overlap. The collection must exist and match the embedder's dimension.
type QdrantLongTermStore struct {
	baseURL    string
	collection string
	apiKey     string
	sessionID  string
	embed      EmbedFunc
	client     *http.Client
}

// QdrantConfig configures the Qdrant store.
type QdrantConfig struct {
	BaseURL    string // e.g. "http://localhost:6333"
	Collection string // default "companion_memories"
	APIKey     string // optional
}

// NewQdrantLongTermStore creates a Qdrant-backed store scoped to one session.
func NewQdrantLongTermStore(config QdrantConfig, sessionID string, embed EmbedFunc) *QdrantLongTermStore {
	if config.Collection == "" {
		config.Collection = "companion_memories"
	}
	return &QdrantLongTermStore{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		collection: config.Collection,
		apiKey:     config.APIKey,
		sessionID:  sessionID,
		embed:      embed,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

var _ companion.LongTermStore = (*QdrantLongTermStore)(nil)

func (q *QdrantLongTermStore) url(path string) string {
	return fmt.Sprintf("%s/collections/%s%s", q.baseURL, q.collection, path)
}

func (q *QdrantLongTermStore) doRequest(ctx context.Context, method, url string, body interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("qdrant %s %s: %d %s", method, url, resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// Persist embeds the memory content and upserts it as one point. All fields
// needed to reconstruct the memory ride in the payload.
func (q *QdrantLongTermStore) Persist(ctx context.Context, m companion.Memory) error {
	vector, err := q.embed(ctx, m.Content)
	if err != nil {
		return err
	}

	body := map[string]interface{}{
		"points": []map[string]interface{}{
			{
				"id":     m.ID,
				"vector": vector,
				"payload": map[string]interface{}{
					"session_id": m.SessionID,
					"content":    m.Content,
					"type":       string(m.Type),
					"timestamp":  m.Timestamp.Unix(),
					"importance": m.Importance,
					"context":    m.Context,
				},
			},
		},
	}
	_, err = q.doRequest(ctx, http.MethodPut, q.url("/points"), body)
	return err
}

// Search embeds the query and runs a filtered vector search over this
// session's memories.
func (q *QdrantLongTermStore) Search(ctx context.Context, query string, limit int) ([]companion.MemoryQueryResult, error) {
	vector, err := q.embed(ctx, query)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}

	body := map[string]interface{}{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
		"filter": map[string]interface{}{
			"must": []map[string]interface{}{
				{"key": "session_id", "match": map[string]interface{}{"value": q.sessionID}},
			},
		},
	}

	respBody, err := q.doRequest(ctx, http.MethodPost, q.url("/points/search"), body)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Result []struct {
			ID      string                 `json:"id"`
			Score   float64                `json:"score"`
			Payload map[string]interface{} `json:"payload"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}

	results := make([]companion.MemoryQueryResult, 0, len(resp.Result))
	for _, hit := range resp.Result {
		results = append(results, companion.MemoryQueryResult{
			Memory:     memoryFromPayload(hit.ID, hit.Payload),
			Similarity: hit.Score,
		})
	}
	return results, nil
}

// PurgeOlderThan deletes points older than cutoff with importance below the
// threshold, scoped to this session.
func (q *QdrantLongTermStore) PurgeOlderThan(ctx context.Context, cutoff time.Time, importanceBelow int) error {
	body := map[string]interface{}{
		"filter": map[string]interface{}{
			"must": []map[string]interface{}{
				{"key": "session_id", "match": map[string]interface{}{"value": q.sessionID}},
				{"key": "timestamp", "range": map[string]interface{}{"lt": cutoff.Unix()}},
				{"key": "importance", "range": map[string]interface{}{"lt": importanceBelow}},
			},
		},
	}
	_, err := q.doRequest(ctx, http.MethodPost, q.url("/points/delete"), body)
	return err
}

func memoryFromPayload(id string, payload map[string]interface{}) companion.Memory {
	m := companion.Memory{ID: id}
	if v, ok := payload["session_id"].(string); ok {
		m.SessionID = v
	}
	if v, ok := payload["content"].(string); ok {
		m.Content = v
	}
	if v, ok := payload["type"].(string); ok {
		m.Type = companion.MemoryType(v)
	}
	if v, ok := payload["timestamp"].(float64); ok {
		m.Timestamp = time.Unix(int64(v), 0)
	}
	if v, ok := payload["importance"].(float64); ok {
		m.Importance = int(v)
	}
	if v, ok := payload["context"].(map[string]interface{}); ok {
		m.Context = v
	}
	return m
}
