package handler

import (
	"github.com/timmy/devmeme/internal/domain"
	"github.com/timmy/devmeme/internal/service"
)

// URLMapper turns a stored image reference into one a browser can load.
type URLMapper func(ref string) string

func identityURL(ref string) string { return ref }

func (m URLMapper) orIdentity() URLMapper {
	if m == nil {
		return identityURL
	}
	return m
}

func (m URLMapper) meme(meme *domain.GeneratedMeme) *domain.GeneratedMeme {
	if meme == nil {
		return nil
	}
	out := *meme
	out.ImageURL = m(meme.ImageURL)
	return &out
}

func (m URLMapper) memes(memes []domain.GeneratedMeme) []domain.GeneratedMeme {
	out := make([]domain.GeneratedMeme, len(memes))
	for i := range memes {
		out[i] = *m.meme(&memes[i])
	}
	return out
}

func (m URLMapper) template(t *domain.MemeTemplate) *domain.MemeTemplate {
	if t == nil {
		return nil
	}
	out := *t
	out.URL = m(t.URL)
	return &out
}

func (m URLMapper) session(s *service.Session) *service.Session {
	out := *s
	out.SelectedTemplate = m.template(s.SelectedTemplate)
	out.CustomTemplate = m.template(s.CustomTemplate)
	out.ActiveMeme = m.meme(s.ActiveMeme)
	return &out
}
