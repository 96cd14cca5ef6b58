package server

import (
	"fmt"
	"net/url"
	"strconv"
)

// genParams are the query parameters shared by generation endpoints.
type genParams struct {
	count  int
	batch  bool // count was given
	seed   uint64
	seeded bool
	where  string
	verify bool
}

func (s *Server) parseGenParams(q url.Values) (genParams, error) {
	var p genParams
	if v := q.Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, fmt.Errorf("count must be a positive integer, got %q", v)
		}
		if n > s.cfg.MaxCount {
			return p, fmt.Errorf("count must not exceed %d", s.cfg.MaxCount)
		}
		p.count = n
		p.batch = true
	}
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return p, fmt.Errorf("seed must be an unsigned integer, got %q", v)
		}
		p.seed = seed
		p.seeded = true
	}
	p.where = q.Get("where")
	if v := q.Get("verify"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return p, fmt.Errorf("verify must be a boolean, got %q", v)
		}
		p.verify = b
	}
	return p, nil
}
