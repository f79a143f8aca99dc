// Package gitinfo stamps analysis reports with source-tree metadata.
package gitinfo

import (
	git "github.com/go-git/go-git/v5"
)

// Metadata identifies the source-tree state an analysis ran against.
type Metadata struct {
	Commit string `json:"commit"`
	Branch string `json:"branch,omitempty"`
	Remote string `json:"remote,omitempty"`
}

// Describe resolves repository metadata for root. A tree that is not a git
// repository (or has no commits yet) simply yields nil metadata; that is
// not an error.
func Describe(root string) *Metadata {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil
	}
	head, err := repo.Head()
	if err != nil {
		return nil
	}
	md := &Metadata{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		md.Branch = head.Name().Short()
	}
	if remotes, err := repo.Remotes(); err == nil && len(remotes) > 0 {
		if urls := remotes[0].Config().URLs; len(urls) > 0 {
			md.Remote = urls[0]
		}
	}
	return md
}
