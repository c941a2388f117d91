package upstream

// Queue is the paged download-queue response shared by the movie and series
// managers.
type Queue struct {
	TotalRecords int           `json:"totalRecords"`
	Records      []QueueRecord `json:"records"`
}

// QueueRecord is one pending or active download.
type QueueRecord struct {
	Status                  string `json:"status"`
	Added                   string `json:"added"`
	EstimatedCompletionTime string `json:"estimatedCompletionTime"`
}
