package hub

// RepoTypeDataset and RepoTypeModel select the Hub API namespace.
const (
	RepoTypeDataset = "dataset"
	RepoTypeModel   = "model"

	DefaultRevision = "main"
)

// RevisionInfo is the subset of the Hub revision endpoint the client uses.
type RevisionInfo struct {
	SHA          string `json:"sha"`
	LastModified string `json:"lastModified"`
	Private      bool   `json:"private"`
}

// TreeEntry is a single entry of a repository tree listing.
type TreeEntry struct {
	Type string `json:"type"`
	Path string `json:"path"`
	Size int64  `json:"size"`
	OID  string `json:"oid"`
}

// CommitResult is returned by the Hub commit API.
type CommitResult struct {
	CommitURL string `json:"commitUrl"`
	CommitOID string `json:"commitOid"`
}

type commitHeader struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
}

type commitFile struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type commitLine struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}
