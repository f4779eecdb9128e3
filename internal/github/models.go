package github

import (
	"time"

	apperrors "github.com/Kamar-Folarin/repo-tracker/internal/errors"
	"github.com/Kamar-Folarin/repo-tracker/internal/models"
)

// Wire shapes of the GitHub REST responses. Pointers distinguish a missing
// or null field from a zero value.

type userPayload struct {
	Login       *string `json:"login"`
	Name        *string `json:"name"`
	Bio         *string `json:"bio"`
	AvatarURL   *string `json:"avatar_url"`
	Followers   int     `json:"followers"`
	Following   int     `json:"following"`
	PublicRepos int     `json:"public_repos"`
}

type repositoryPayload struct {
	ID              *int64     `json:"id"`
	Name            *string    `json:"name"`
	Description     *string    `json:"description"`
	Language        *string    `json:"language"`
	StargazersCount int        `json:"stargazers_count"`
	ForksCount      int        `json:"forks_count"`
	Private         bool       `json:"private"`
	UpdatedAt       *time.Time `json:"updated_at"`
	HTMLURL         string     `json:"html_url"`
}

type commitPayload struct {
	SHA    *string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  *struct {
			Name string     `json:"name"`
			Date *time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	HTMLURL string `json:"html_url"`
}

func (p *userPayload) toModel() (*models.UserProfile, error) {
	if p.Login == nil || *p.Login == "" {
		return nil, apperrors.NewMalformedResponseError("user response is missing login", nil)
	}
	profile := &models.UserProfile{
		Login:       *p.Login,
		Name:        p.Name,
		Bio:         p.Bio,
		Followers:   p.Followers,
		Following:   p.Following,
		PublicRepos: p.PublicRepos,
	}
	if p.AvatarURL != nil {
		profile.AvatarURL = *p.AvatarURL
	}
	return profile, nil
}

func (p *repositoryPayload) toModel() (models.Repository, error) {
	if p.ID == nil {
		return models.Repository{}, apperrors.NewMalformedResponseError("repository response is missing id", nil)
	}
	if p.Name == nil {
		return models.Repository{}, apperrors.NewMalformedResponseError("repository response is missing name", nil)
	}
	repo := models.Repository{
		ID:          *p.ID,
		Name:        *p.Name,
		Description: p.Description,
		Language:    p.Language,
		StarsCount:  p.StargazersCount,
		ForksCount:  p.ForksCount,
		Private:     p.Private,
		URL:         p.HTMLURL,
	}
	if p.UpdatedAt != nil {
		t := p.UpdatedAt.UTC()
		repo.UpdatedAt = &t
	}
	return repo, nil
}

func (p *commitPayload) toModel() (models.Commit, error) {
	if p.SHA == nil || *p.SHA == "" {
		return models.Commit{}, apperrors.NewMalformedResponseError("commit response is missing sha", nil)
	}
	commit := models.Commit{
		SHA:       *p.SHA,
		Message:   p.Commit.Message,
		CommitURL: p.HTMLURL,
	}
	if author := p.Commit.Author; author != nil {
		commit.AuthorName = author.Name
		if author.Date != nil {
			commit.AuthorDate = author.Date.UTC()
		}
	}
	return commit, nil
}
