// internal/sync/search/index.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"fhrs-sync/internal/common/logger"
	"fhrs-sync/internal/models"
	"fhrs-sync/internal/sync/store"
)

var (
	ErrIndexWriteFailed  = errors.New("INDEX_WRITE_FAILED")
	ErrSearchQueryFailed = errors.New("SEARCH_QUERY_FAILED")
)

// maxCandidatesPerSearch bounds a postcode candidate query; a single
// normalized postcode never maps to more establishments than this.
const maxCandidatesPerSearch = 1000

// establishmentDoc is the indexed shape of an establishment. It embeds the
// model and adds the normalized postcode so candidate lookups can use an
// exact terms filter.
type establishmentDoc struct {
	models.Establishment
	PostCodeNormalized string `json:"postCodeNormalized"`
}

// EstablishmentIndex mirrors upserted establishments into Elasticsearch and
// serves postcode candidate lookups from the same index.
type EstablishmentIndex struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewEstablishmentIndex(client *elasticsearch.Client, index string, log logger.Logger) *EstablishmentIndex {
	return &EstablishmentIndex{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"index": index}),
	}
}

// Index writes one establishment document keyed by its FHRS id. Re-indexing
// the same id overwrites the previous document.
func (i *EstablishmentIndex) Index(ctx context.Context, est *models.Establishment) error {
	doc := establishmentDoc{
		Establishment:      *est,
		PostCodeNormalized: store.NormalizePostcode(est.PostCode),
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: marshal document: %v", ErrIndexWriteFailed, err)
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: strconv.Itoa(est.FHRSID),
		Body:       bytes.NewReader(body),
	}

	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexWriteFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: %s", ErrIndexWriteFailed, res.String())
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source establishmentDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// FindByPostcodes returns establishments whose normalized postcode matches
// any of the given postcodes, ordered by FHRS id.
func (i *EstablishmentIndex) FindByPostcodes(ctx context.Context, postcodes []string) ([]models.Establishment, error) {
	seen := make(map[string]bool, len(postcodes))
	normalized := make([]string, 0, len(postcodes))
	for _, pc := range postcodes {
		n := store.NormalizePostcode(pc)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		normalized = append(normalized, n)
	}
	if len(normalized) == 0 {
		return nil, nil
	}

	queryBody := map[string]interface{}{
		"query": map[string]interface{}{
			"terms": map[string]interface{}{"postCodeNormalized": normalized},
		},
		"sort": []map[string]interface{}{{"fhrsId": "asc"}},
	}

	body, _ := json.Marshal(queryBody)
	size := maxCandidatesPerSearch

	req := esapi.SearchRequest{
		Index: []string{i.index},
		Body:  strings.NewReader(string(body)),
		Size:  &size,
	}

	res, err := req.Do(ctx, i.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchQueryFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchQueryFailed, res.String())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchQueryFailed, err)
	}

	out := make([]models.Establishment, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		out = append(out, hit.Source.Establishment)
	}
	return out, nil
}
