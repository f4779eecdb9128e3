package models

import "time"

// Repository is one GitHub repository as cached for a username.
// Nil Description, Language or UpdatedAt mean GitHub sent null.
type Repository struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	Language    *string    `json:"language"`
	StarsCount  int        `json:"stargazers_count"`
	ForksCount  int        `json:"forks_count"`
	Private     bool       `json:"private"`
	UpdatedAt   *time.Time `json:"updated_at"`
	URL         string     `json:"html_url"`
}

// RepositorySet is the repositories of one username at one point in time.
type RepositorySet struct {
	Username     string       `json:"username"`
	Repositories []Repository `json:"repositories"`
	// Fingerprint is the digest of the username, stored in the repo.hash column
	Fingerprint string `json:"fingerprint"`
	// ContentFingerprint is the digest of the repository content
	ContentFingerprint string    `json:"content_fingerprint,omitempty"`
	FetchedAt          time.Time `json:"fetched_at"`
}

// UniqueRepositories returns repos without later duplicates of an ID and the
// number of entries dropped.
func UniqueRepositories(repos []Repository) ([]Repository, int) {
	seen := make(map[int64]struct{}, len(repos))
	unique := make([]Repository, 0, len(repos))
	for _, repo := range repos {
		if _, dup := seen[repo.ID]; dup {
			continue
		}
		seen[repo.ID] = struct{}{}
		unique = append(unique, repo)
	}
	return unique, len(repos) - len(unique)
}
