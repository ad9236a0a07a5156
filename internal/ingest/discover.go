package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ergometry/internal/store"
)

// Entry holds the matched inputs of one subject. The ECG is loaded lazily
// by the pipeline since it dominates memory.
type Entry struct {
	ID      int
	Subject store.Subject
	Power   store.PowerTrace
	ECGPath string
}

// Catalog is the identifier-keyed result of scanning an input directory
type Catalog struct {
	Entries []Entry // ascending by ID
	Errors  []error // load and correspondence failures, one per rejected file or ID
}

// Loader scans an input directory and matches files by subject identifier
type Loader struct {
	ReferenceYear int

	// OnSubjectLoaded is called for every subject metadata file read successfully
	OnSubjectLoaded func(store.Subject)
}

type parts struct {
	subjects []store.Subject
	powers   []store.PowerTrace
	ecgs     []string
}

// Discover reads all subject and power files in dir, locates the ECG files,
// and builds one Entry per identifier that has exactly one of each.
func (l *Loader) Discover(dir string) (*Catalog, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory: %w", err)
	}

	catalog := &Catalog{}
	byID := make(map[int]*parts)
	get := func(id int) *parts {
		p, ok := byID[id]
		if !ok {
			p = &parts{}
			byID[id] = p
		}
		return p
	}

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		path := filepath.Join(dir, f.Name())

		switch strings.ToLower(filepath.Ext(f.Name())) {
		case ".json":
			s, err := LoadSubject(path, l.ReferenceYear)
			if err != nil {
				catalog.Errors = append(catalog.Errors, err)
				continue
			}
			if fileID, err := TrailingID(path); err == nil && fileID != s.ID {
				catalog.Errors = append(catalog.Errors, &CorrespondenceError{
					ID:     s.ID,
					Reason: fmt.Sprintf("metadata file %s is named for subject %d", f.Name(), fileID),
				})
				continue
			}
			if l.OnSubjectLoaded != nil {
				l.OnSubjectLoaded(s)
			}
			p := get(s.ID)
			p.subjects = append(p.subjects, s)

		case ".txt":
			pt, err := LoadPower(path)
			if err != nil {
				catalog.Errors = append(catalog.Errors, err)
				continue
			}
			p := get(pt.SubjectID)
			p.powers = append(p.powers, pt)

		case ".csv":
			id, err := TrailingID(path)
			if err != nil {
				catalog.Errors = append(catalog.Errors, &LoadError{Path: path, Err: err})
				continue
			}
			p := get(id)
			p.ecgs = append(p.ecgs, path)
		}
	}

	ids := make([]int, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		p := byID[id]
		if reason := p.mismatch(); reason != "" {
			catalog.Errors = append(catalog.Errors, &CorrespondenceError{ID: id, Reason: reason})
			continue
		}
		catalog.Entries = append(catalog.Entries, Entry{
			ID:      id,
			Subject: p.subjects[0],
			Power:   p.powers[0],
			ECGPath: p.ecgs[0],
		})
	}

	return catalog, nil
}

// mismatch describes why the parts of an identifier cannot form one test
func (p *parts) mismatch() string {
	var problems []string
	check := func(kind string, n int) {
		switch {
		case n == 0:
			problems = append(problems, "missing "+kind)
		case n > 1:
			problems = append(problems, fmt.Sprintf("%d %s files", n, kind))
		}
	}
	check("subject metadata", len(p.subjects))
	check("power trace", len(p.powers))
	check("ECG", len(p.ecgs))
	return strings.Join(problems, ", ")
}
