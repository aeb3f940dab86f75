package clause

// Farm owns a set of independent named arenas (spec §4.3). The
// problem-clause arena and the learnt/auxiliary arena are the two the
// solver loop opens; plugins may open their own for scratch clauses
// they don't want mixed into either pool.
type Farm struct {
	dbs map[string]*DB
}

// NewFarm creates an empty farm.
func NewFarm() *Farm {
	return &Farm{dbs: make(map[string]*DB)}
}

// NewClauseDB opens (or returns, if already open) the named arena
// (spec §4.3 "newClauseDB(name) yields an independent arena").
func (f *Farm) NewClauseDB(name string) *DB {
	if db, ok := f.dbs[name]; ok {
		return db
	}
	db := newDB(name)
	f.dbs[name] = db
	return db
}

// DBs returns every arena currently open, for GC orchestration that
// needs to sweep all of them.
func (f *Farm) DBs() map[string]*DB {
	return f.dbs
}
