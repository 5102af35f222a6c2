package models

// Book представляет книгу каталога. Author заполняется хранилищем при чтении.
type Book struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Published int      `json:"published"`
	Genres    []string `json:"genres"`
	AuthorID  string   `json:"authorId"`
	Author    *Author  `json:"-"`
}

// Author представляет автора. bookCount не хранится, а вычисляется при чтении.
type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Born *int   `json:"born,omitempty"`
}

// User is a registered account. Passwords are not part of the model.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	FavoriteGenre string `json:"favoriteGenre"`
}

// Token is the login result returned to the client.
type Token struct {
	Value string `json:"value"`
}

// MinUsernameLength is the shortest accepted username.
const MinUsernameLength = 3

// Clone returns a deep copy of the book, including the resolved author.
func (b *Book) Clone() *Book {
	if b == nil {
		return nil
	}
	c := *b
	c.Genres = append([]string{}, b.Genres...)
	c.Author = b.Author.Clone()
	return &c
}

// Clone returns a deep copy of the author.
func (a *Author) Clone() *Author {
	if a == nil {
		return nil
	}
	c := *a
	if a.Born != nil {
		born := *a.Born
		c.Born = &born
	}
	return &c
}

// Clone returns a copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
