package stores

// AlgoliaMultiResponse is the multi-query envelope fanatical and gmg write
// one-per-line into their snapshot files.
type AlgoliaMultiResponse[T any] struct {
	Results []AlgoliaResult[T] `json:"results"`
}

type AlgoliaResult[T any] struct {
	Hits        []T   `json:"hits"`
	NbHits      int64 `json:"nb_hits"`
	Page        int64 `json:"page"`
	NbPages     int64 `json:"nb_pages"`
	HitsPerPage int64 `json:"hits_per_page"`
}
