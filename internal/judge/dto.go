package judge

// DTOs for the Codeforces API (https://codeforces.com/apiHelp). Every
// endpoint wraps its payload in {"status": "OK"|"FAILED", "result", "comment"}.

const (
	VerdictAccepted         = "OK"
	VerdictCompilationError = "COMPILATION_ERROR"
)

type apiEnvelope[T any] struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
	Result  T      `json:"result"`
}

// Problem is a single problem from problemset.problems or contest.standings.
type Problem struct {
	ContestID int      `json:"contestId"`
	Index     string   `json:"index"`
	Name      string   `json:"name"`
	Rating    int      `json:"rating"`
	Tags      []string `json:"tags"`
}

// User is the user.info payload for one handle.
type User struct {
	Handle    string `json:"handle"`
	Rating    int    `json:"rating"`
	Rank      string `json:"rank"`
	MaxRating int    `json:"maxRating"`
	MaxRank   string `json:"maxRank"`
}

// Submission is one entry of user.status. Ordering is not guaranteed by the
// API; callers must filter on fields rather than position.
type Submission struct {
	ID                  int64   `json:"id"`
	ContestID           int     `json:"contestId"`
	CreationTimeSeconds int64   `json:"creationTimeSeconds"`
	RelativeTimeSeconds int64   `json:"relativeTimeSeconds"`
	Problem             Problem `json:"problem"`
	Verdict             string  `json:"verdict"`
}

// Contest is the contest metadata slice of contest.standings.
type Contest struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	DurationSeconds int64  `json:"durationSeconds"`
}

type problemSetResult struct {
	Problems []Problem `json:"problems"`
}

type standingsResult struct {
	Contest  Contest   `json:"contest"`
	Problems []Problem `json:"problems"`
}

// ContestMeta is what the verification protocols need from a contest: its
// live window length and which problem indices it carries.
type ContestMeta struct {
	DurationSeconds int64
	ProblemIndices  []string
}
