package main

import (
	"context"
	"database/sql"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
)

// DBCache maintains a cached DuckDB connection that refreshes periodically.
type DBCache struct {
	roots       []string
	refreshRate time.Duration

	mu          sync.RWMutex
	db          *sql.DB
	lastRefresh time.Time

	// Cached match index for fast pagination
	matchIndex []MatchSummary
}

func NewDBCache(roots []string, refreshRate time.Duration) *DBCache {
	return &DBCache{
		roots:       roots,
		refreshRate: refreshRate,
	}
}

// Get returns the cached DB connection, refreshing if needed.
func (c *DBCache) Get() (*sql.DB, error) {
	c.mu.RLock()
	if c.db != nil && time.Since(c.lastRefresh) < c.refreshRate {
		db := c.db
		c.mu.RUnlock()
		return db, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if c.db != nil && time.Since(c.lastRefresh) < c.refreshRate {
		return c.db, nil
	}
	return c.refreshLocked()
}

// Refresh forces the view to be rebuilt over the shards currently on disk.
func (c *DBCache) Refresh() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.refreshLocked()
	return err
}

func (c *DBCache) refreshLocked() (*sql.DB, error) {
	start := time.Now()

	files, err := findParquetFilesMulti(c.roots)
	if err != nil {
		return nil, err
	}
	newDB, err := openDuckDB(files)
	if err != nil {
		return nil, err
	}
	if c.db != nil {
		_ = c.db.Close()
	}

	c.db = newDB
	c.lastRefresh = time.Now()
	c.matchIndex = nil

	log.Printf("DBCache refreshed in %v (%d shards)", time.Since(start), len(files))
	return c.db, nil
}

// MatchIndex returns the cached match summaries, rebuilding after a refresh.
func (c *DBCache) MatchIndex(ctx context.Context) ([]MatchSummary, error) {
	c.mu.RLock()
	if c.matchIndex != nil && c.db != nil {
		idx := c.matchIndex
		c.mu.RUnlock()
		return idx, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.matchIndex != nil && c.db != nil {
		return c.matchIndex, nil
	}
	if c.db == nil {
		if _, err := c.refreshLocked(); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	matches, err := queryAllMatches(ctx, c.db, c.roots)
	if err != nil {
		return nil, err
	}
	c.matchIndex = matches
	log.Printf("Match index rebuilt: %d matches in %v", len(matches), time.Since(start))
	return c.matchIndex, nil
}

func (c *DBCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db != nil {
		err := c.db.Close()
		c.db = nil
		return err
	}
	return nil
}

// findParquetFiles lists journal shards under root. In-progress files live
// under tmp/ and are skipped.
func findParquetFiles(root string) ([]string, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, nil
	}
	var files []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if name == "tmp" {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(strings.ToLower(name), ".parquet") {
			files = append(files, path)
		}
		return nil
	})
	if walkErr != nil {
		if os.IsNotExist(walkErr) {
			return nil, nil
		}
		return nil, walkErr
	}
	return files, nil
}

func findParquetFilesMulti(roots []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, r := range roots {
		files, err := findParquetFiles(r)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if seen[f] {
				continue
			}
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

func openDuckDB(parquetFiles []string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, err
	}
	// Basic pragmas; ignore errors for compatibility across versions.
	_, _ = db.Exec("PRAGMA threads=4")
	_, _ = db.Exec("PRAGMA enable_object_cache=false")

	if len(parquetFiles) == 0 {
		_, err := db.Exec(`CREATE OR REPLACE VIEW journal AS
			SELECT * FROM (
				SELECT
					NULL::VARCHAR AS match_id,
					NULL::INTEGER AS step,
					NULL::INTEGER AS round,
					NULL::VARCHAR AS player,
					NULL::VARCHAR AS action_type,
					NULL::VARCHAR AS unit_id,
					NULL::BLOB AS action,
					NULL::BLOB AS state,
					NULL::BOOLEAN AS game_over,
					NULL::VARCHAR AS winner,
					NULL::VARCHAR AS source,
					NULL::BIGINT AS seed,
					NULL::BIGINT AS recorded_ns,
					NULL::VARCHAR AS filename
			) WHERE 1=0`)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	arr := make([]string, 0, len(parquetFiles))
	for _, p := range parquetFiles {
		arr = append(arr, "'"+escapeSQLString(p)+"'")
	}
	// A match archived by the server and also present in a selfplay shard keeps
	// the row from the lexically first file.
	sqlText := `CREATE OR REPLACE VIEW journal AS
		SELECT * FROM read_parquet([` + strings.Join(arr, ",") + `], filename=true, union_by_name=true)
		QUALIFY row_number() OVER (PARTITION BY match_id, step ORDER BY filename) = 1`
	if _, err := db.Exec(sqlText); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func makeRelativeToRoots(filename string, roots []string) string {
	fn := strings.TrimSpace(filename)
	if fn == "" {
		return ""
	}
	best := fn
	for _, r := range roots {
		root := strings.TrimSpace(r)
		if root == "" {
			continue
		}
		rel, err := filepath.Rel(root, fn)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		cand := filepath.ToSlash(filepath.Join(root, rel))
		if len(cand) < len(best) {
			best = cand
		}
	}
	return best
}

func queryAllMatches(ctx context.Context, db *sql.DB, roots []string) ([]MatchSummary, error) {
	rows, err := db.QueryContext(ctx, `SELECT
			match_id,
			MIN(source)::VARCHAR AS source,
			MIN(seed)::BIGINT AS seed,
			MAX(step)::INTEGER AS steps,
			MAX(round)::INTEGER AS rounds,
			bool_or(game_over) AS finished,
			COALESCE(MAX(winner), '')::VARCHAR AS winner,
			MIN(recorded_ns)::BIGINT AS started_ns,
			MIN(filename)::VARCHAR AS file
		FROM journal
		GROUP BY match_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MatchSummary
	for rows.Next() {
		var m MatchSummary
		var file string
		if err := rows.Scan(&m.MatchID, &m.Source, &m.Seed, &m.Steps, &m.Rounds, &m.Finished, &m.Winner, &m.StartedNs, &file); err != nil {
			return nil, err
		}
		m.SourceFile = makeRelativeToRoots(file, roots)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		out = []MatchSummary{}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedNs != out[j].StartedNs {
			return out[i].StartedNs > out[j].StartedNs
		}
		return out[i].MatchID > out[j].MatchID
	})
	return out, nil
}

func normalizeSort(sortKey, sortDir string) (string, string) {
	sk := strings.ToLower(strings.TrimSpace(sortKey))
	sd := strings.ToLower(strings.TrimSpace(sortDir))
	if sd != "asc" && sd != "desc" {
		sd = "desc"
	}
	switch sk {
	case "time", "started", "started_ns":
		sk = "started_ns"
	case "id", "match", "match_id":
		sk = "match_id"
	case "steps":
		sk = "steps"
	case "rounds":
		sk = "rounds"
	case "source":
		sk = "source"
	case "winner":
		sk = "winner"
	default:
		sk = "started_ns"
		sd = "desc"
	}
	return sk, sd
}

// paginateMatches sorts a copy of the index and returns one page plus the
// total count.
func paginateMatches(matches []MatchSummary, limit, offset int, sortKey, sortDir string) ([]MatchSummary, int64) {
	total := int64(len(matches))
	if offset >= len(matches) {
		return []MatchSummary{}, total
	}
	sk, sd := normalizeSort(sortKey, sortDir)

	sorted := make([]MatchSummary, len(matches))
	copy(sorted, matches)
	less := func(a, b MatchSummary) bool {
		switch sk {
		case "match_id":
			return a.MatchID < b.MatchID
		case "steps":
			return a.Steps < b.Steps
		case "rounds":
			return a.Rounds < b.Rounds
		case "source":
			return a.Source < b.Source
		case "winner":
			return a.Winner < b.Winner
		}
		return a.StartedNs < b.StartedNs
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sd == "asc" {
			return less(sorted[i], sorted[j])
		}
		return less(sorted[j], sorted[i])
	})

	end := offset + limit
	if end > len(sorted) {
		end = len(sorted)
	}
	return sorted[offset:end], total
}

const stepColumns = `match_id, step::INTEGER, round::INTEGER, player, action_type, unit_id, action, state, game_over, winner`

func scanStep(scan func(dest ...any) error) (Step, error) {
	var st Step
	var action, state []byte
	if err := scan(&st.MatchID, &st.Step, &st.Round, &st.Player, &st.ActionType, &st.UnitID, &action, &state, &st.GameOver, &st.Winner); err != nil {
		return Step{}, err
	}
	if len(action) > 0 {
		st.Action = action
	}
	st.State = state
	return st, nil
}

// queryMatch returns every step of a match in order, or sql.ErrNoRows.
func queryMatch(ctx context.Context, db *sql.DB, matchID string) ([]Step, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+stepColumns+` FROM journal WHERE match_id = ? ORDER BY step ASC`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []Step
	for rows.Next() {
		st, err := scanStep(rows.Scan)
		if err != nil {
			return nil, err
		}
		steps = append(steps, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, sql.ErrNoRows
	}
	return steps, nil
}

func queryStep(ctx context.Context, db *sql.DB, matchID string, step int32) (Step, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+stepColumns+` FROM journal WHERE match_id = ? AND step = ? LIMIT 1`, matchID, step)
	return scanStep(row.Scan)
}

func queryStats(ctx context.Context, db *sql.DB) (StatsResponse, error) {
	rows, err := db.QueryContext(ctx, `WITH per_match AS (
			SELECT
				match_id,
				MIN(source)::VARCHAR AS source,
				MAX(step) AS steps,
				MAX(round) AS rounds,
				bool_or(game_over) AS finished,
				COALESCE(MAX(winner), '') AS winner
			FROM journal
			GROUP BY match_id
		)
		SELECT
			source,
			COUNT(*)::BIGINT,
			COUNT(*) FILTER (WHERE finished)::BIGINT,
			COUNT(*) FILTER (WHERE winner = 'P1')::BIGINT,
			COUNT(*) FILTER (WHERE winner = 'P2')::BIGINT,
			AVG(steps)::DOUBLE,
			AVG(rounds)::DOUBLE
		FROM per_match
		GROUP BY source
		ORDER BY source`)
	if err != nil {
		return StatsResponse{}, err
	}
	defer rows.Close()

	resp := StatsResponse{Sources: []SourceStats{}}
	var stepSum, roundSum float64
	for rows.Next() {
		var s SourceStats
		if err := rows.Scan(&s.Source, &s.Matches, &s.Finished, &s.P1Wins, &s.P2Wins, &s.AvgSteps, &s.AvgRounds); err != nil {
			return StatsResponse{}, err
		}
		resp.Sources = append(resp.Sources, s)
		resp.Total.Matches += s.Matches
		resp.Total.Finished += s.Finished
		resp.Total.P1Wins += s.P1Wins
		resp.Total.P2Wins += s.P2Wins
		stepSum += s.AvgSteps * float64(s.Matches)
		roundSum += s.AvgRounds * float64(s.Matches)
	}
	if err := rows.Err(); err != nil {
		return StatsResponse{}, err
	}
	resp.Total.Source = "all"
	if resp.Total.Matches > 0 {
		resp.Total.AvgSteps = stepSum / float64(resp.Total.Matches)
		resp.Total.AvgRounds = roundSum / float64(resp.Total.Matches)
	}
	return resp, nil
}
