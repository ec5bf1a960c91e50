// Package commits turns the history of a local git repository into
// instantaneous grid items.
package commits

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/cpuguy83/timegrid/internal/clock"
	"github.com/cpuguy83/timegrid/internal/layout"
)

// Commit is a single commit as shown on the grid.
type Commit struct {
	Hash    string
	Author  string
	Email   string
	Message string
	When    time.Time
	Source  string
}

// Title is the first line of the commit message.
func (c Commit) Title() string {
	title, _, _ := strings.Cut(strings.TrimSpace(c.Message), "\n")
	return title
}

// Field returns the named field for include filters.
func (c Commit) Field(name string) string {
	switch name {
	case "title", "summary":
		return c.Title()
	case "author", "organizer":
		return c.Author
	case "email":
		return c.Email
	case "source", "calendar":
		return c.Source
	case "description", "message":
		return c.Message
	case "hash":
		return c.Hash
	default:
		return ""
	}
}

// Source reads commits from a repository on disk.
type Source struct {
	name       string
	path       string
	branch     string
	maxCommits int
}

// NewSource creates a commit source. An empty branch follows HEAD;
// maxCommits <= 0 means no limit.
func NewSource(name, path, branch string, maxCommits int) *Source {
	return &Source{
		name:       name,
		path:       path,
		branch:     branch,
		maxCommits: maxCommits,
	}
}

// Name returns the display name of this source.
func (s *Source) Name() string {
	return s.name
}

// Fetch returns commits whose committer time lies in [start, end), newest
// first, up to the configured limit.
func (s *Source) Fetch(ctx context.Context, start, end time.Time) ([]Commit, error) {
	repo, err := git.PlainOpen(s.path)
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}

	ref, err := s.resolve(repo)
	if err != nil {
		return nil, err
	}

	iter, err := repo.Log(&git.LogOptions{
		From:  ref.Hash(),
		Order: git.LogOrderCommitterTime,
		Since: &start,
		Until: &end,
	})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	var commits []Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		// Until is inclusive; the range is not.
		if !c.Committer.When.Before(end) {
			return nil
		}
		commits = append(commits, s.toCommit(c))
		if s.maxCommits > 0 && len(commits) >= s.maxCommits {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}

	slog.Debug("fetched commits", "source", s.name, "count", len(commits))
	return commits, nil
}

func (s *Source) resolve(repo *git.Repository) (*plumbing.Reference, error) {
	if s.branch == "" {
		ref, err := repo.Head()
		if err != nil {
			return nil, fmt.Errorf("resolve HEAD: %w", err)
		}
		return ref, nil
	}
	ref, err := repo.Reference(plumbing.NewBranchReferenceName(s.branch), true)
	if err != nil {
		return nil, fmt.Errorf("resolve branch %s: %w", s.branch, err)
	}
	return ref, nil
}

func (s *Source) toCommit(c *object.Commit) Commit {
	return Commit{
		Hash:    c.Hash.String(),
		Author:  c.Author.Name,
		Email:   c.Author.Email,
		Message: c.Message,
		When:    c.Committer.When,
		Source:  s.name,
	}
}

// ToItems converts commits to instantaneous items in the wall clock of loc.
// Each item carries a start time only so the layout gives it the synthetic
// instant duration.
func ToItems(commits []Commit, loc *time.Location) []layout.ItemInput {
	if loc == nil {
		loc = time.Local
	}

	items := make([]layout.ItemInput, 0, len(commits))
	for _, c := range commits {
		when := c.When.In(loc)
		items = append(items, layout.ItemInput{
			ID:    c.Source + "@" + shortHash(c.Hash),
			Date:  clock.DateOf(when),
			Start: when.Format("15:04"),
		})
	}
	return items
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
