package models

import (
	"fmt"
	"io"
)

// Person is a user of the issue tracker, identified by nickname
type Person struct {
	nickname string
	name     string
	url      string
	picture  func() (io.ReadCloser, error)
}

// NewPerson builds a Person. picture may be nil when no image is stored.
func NewPerson(nickname, name, url string, picture func() (io.ReadCloser, error)) (*Person, error) {
	if nickname == "" {
		return nil, fmt.Errorf("required fields are not filled: nickname")
	}
	return &Person{nickname: nickname, name: name, url: url, picture: picture}, nil
}

func (p *Person) Nickname() string { return p.nickname }
func (p *Person) URL() string      { return p.url }

// Name falls back to nickname when no display name is set
func (p *Person) Name() string {
	if p.name == "" {
		return p.nickname
	}
	return p.name
}

func (p *Person) HasPicture() bool { return p.picture != nil }

// Picture opens the stored image. The caller must close it.
func (p *Person) Picture() (io.ReadCloser, error) {
	if p.picture == nil {
		return nil, ErrNoPicture
	}
	return p.picture()
}
