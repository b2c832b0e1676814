package status

import "slices"

// Machine is one remote target tracked for a repository.
type Machine struct {
	Name   string
	Status SyncStatus
}

// Repository is the last known state of one tracked repository.
type Repository struct {
	Name        string
	MasterName  string
	MasterDirOK bool
	Machines    []Machine // first-seen order
}

// Machine returns the machine with the given name.
func (r *Repository) Machine(name string) (Machine, bool) {
	i := r.machineIndex(name)
	if i < 0 {
		return Machine{}, false
	}
	return r.Machines[i], true
}

// SyncAllowed reports whether a check or push against m makes sense: the
// master directory must be fine and the machine must be behind.
func (r *Repository) SyncAllowed(m Machine) bool {
	return r.MasterDirOK && m.Status == StatusNeeded
}

func (r *Repository) machineIndex(name string) int {
	return slices.IndexFunc(r.Machines, func(m Machine) bool { return m.Name == name })
}

func (r *Repository) clone() Repository {
	c := *r
	c.Machines = slices.Clone(r.Machines)
	return c
}

// ApplyResult describes what a single Apply changed.
type ApplyResult struct {
	Repository  string
	Created     bool     // repository seen for the first time
	NewMachines []string // machines seen for the first time, in record order
	Changed     bool     // any stored field differs from before
}

// Registry holds every repository ever reported, in first-seen order.
// Entries are never removed.
//
// A Registry is not safe for concurrent use; callers that read while another
// goroutine applies records must serialise access themselves.
type Registry struct {
	repos  []*Repository
	byName map[string]int
}

func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]int),
	}
}

// Apply merges one parsed record. The repository and any new machines are
// appended to the end of their orderings; existing entries are updated in
// place.
func (r *Registry) Apply(rec Record) ApplyResult {
	res := ApplyResult{Repository: rec.Repository}

	repo := r.find(rec.Repository)
	if repo == nil {
		repo = r.add(&Repository{Name: rec.Repository})
		res.Created = true
		res.Changed = true
	}

	if repo.MasterName != rec.Master.Name {
		repo.MasterName = rec.Master.Name
		res.Changed = true
	}

	dirOK := rec.Master.Status == StatusOK
	if repo.MasterDirOK != dirOK {
		repo.MasterDirOK = dirOK
		res.Changed = true
	}

	for _, e := range rec.Machines {
		i := repo.machineIndex(e.Name)
		if i < 0 {
			repo.Machines = append(repo.Machines, Machine{Name: e.Name, Status: e.Status})
			res.NewMachines = append(res.NewMachines, e.Name)
			res.Changed = true
			continue
		}

		if repo.Machines[i].Status != e.Status {
			repo.Machines[i].Status = e.Status
			res.Changed = true
		}
	}

	return res
}

// Restore appends previously known repositories that are not yet present.
// It is meant for seeding the registry before any stream is consumed.
func (r *Registry) Restore(repos ...Repository) {
	for _, repo := range repos {
		if _, ok := r.byName[repo.Name]; ok {
			continue
		}

		c := repo.clone()
		r.add(&c)
	}
}

// Get returns a copy of the named repository.
func (r *Registry) Get(name string) (Repository, bool) {
	repo := r.find(name)
	if repo == nil {
		return Repository{}, false
	}
	return repo.clone(), true
}

// Index returns the first-seen position of the named repository.
func (r *Registry) Index(name string) (int, bool) {
	i, ok := r.byName[name]
	return i, ok
}

// Snapshot returns a deep copy of every repository in first-seen order.
func (r *Registry) Snapshot() []Repository {
	out := make([]Repository, 0, len(r.repos))
	for _, repo := range r.repos {
		out = append(out, repo.clone())
	}
	return out
}

func (r *Registry) find(name string) *Repository {
	i, ok := r.byName[name]
	if !ok {
		return nil
	}
	return r.repos[i]
}

func (r *Registry) add(repo *Repository) *Repository {
	r.byName[repo.Name] = len(r.repos)
	r.repos = append(r.repos, repo)
	return repo
}

// Len returns the number of known repositories.
func (r *Registry) Len() int {
	return len(r.repos)
}
