package status

// Aggregate returns the most severe status of a repository: the master's
// directory state (ok or no_dir) combined with every machine status. It is
// computed on every call and never cached.
func Aggregate(repo Repository) SyncStatus {
	result := StatusNoDir
	if repo.MasterDirOK {
		result = StatusOK
	}

	for _, m := range repo.Machines {
		result = Max(result, m.Status)
	}

	return result
}
