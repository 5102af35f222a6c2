// Package redisstore keeps the catalog as JSON documents in Redis.
//
// Key layout (prefix defaults to "library"):
//
//	<p>:author:<id>               JSON document
//	<p>:authors                   list of author ids, insertion order
//	<p>:authors:by_name           hash name -> id (unique index)
//	<p>:book:<id>                 JSON document
//	<p>:books                     list of book ids, insertion order
//	<p>:books:genre:<genre>       set of book ids
//	<p>:books:author:<authorId>   set of book ids
//	<p>:user:<id>                 JSON document
//	<p>:users:by_username         hash username -> id (unique index)
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"library/models"
	"library/storage"
	"library/utils"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Store implements storage.Store on top of a shared Redis client.
// The client belongs to the caller; Close does not close it.
type Store struct {
	client *redis.Client
	prefix string
}

var _ storage.Store = (*Store)(nil)

// New creates a store using keys under prefix
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "library"
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(parts ...string) string {
	k := s.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

func (s *Store) authorKey(id string) string { return s.key("author", id) }
func (s *Store) bookKey(id string) string   { return s.key("book", id) }
func (s *Store) userKey(id string) string   { return s.key("user", id) }

func (s *Store) CountBooks(ctx context.Context) (int, error) {
	n, err := s.client.LLen(ctx, s.key("books")).Result()
	if err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return int(n), nil
}

func (s *Store) CountAuthors(ctx context.Context) (int, error) {
	n, err := s.client.LLen(ctx, s.key("authors")).Result()
	if err != nil {
		return 0, fmt.Errorf("count authors: %w", err)
	}
	return int(n), nil
}

func (s *Store) FindBooks(ctx context.Context, filter storage.BookFilter) ([]*models.Book, error) {
	ids, err := s.client.LRange(ctx, s.key("books"), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	if filter.Genre != nil {
		members, err := s.client.SMembersMap(ctx, s.key("books", "genre", *filter.Genre)).Result()
		if err != nil {
			return nil, fmt.Errorf("list books by genre: %w", err)
		}
		ids = lo.Filter(ids, func(id string, _ int) bool {
			_, ok := members[id]
			return ok
		})
	}

	// Фильтр по автору: сначала находим id автора по индексу имен
	if filter.Author != nil {
		author, err := s.FindAuthorByName(ctx, *filter.Author)
		if err != nil {
			return nil, err
		}
		if author == nil {
			return []*models.Book{}, nil
		}
		members, err := s.client.SMembersMap(ctx, s.key("books", "author", author.ID)).Result()
		if err != nil {
			return nil, fmt.Errorf("list books by author: %w", err)
		}
		ids = lo.Filter(ids, func(id string, _ int) bool {
			_, ok := members[id]
			return ok
		})
	}

	if len(ids) == 0 {
		return []*models.Book{}, nil
	}

	var books []*models.Book
	if err := s.getDocuments(ctx, lo.Map(ids, func(id string, _ int) string { return s.bookKey(id) }), func(data string) error {
		var b models.Book
		if err := json.Unmarshal([]byte(data), &b); err != nil {
			return err
		}
		books = append(books, &b)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}

	authors, err := s.authorsByID(ctx, lo.Uniq(lo.Map(books, func(b *models.Book, _ int) string { return b.AuthorID })))
	if err != nil {
		return nil, err
	}

	result := make([]*models.Book, 0, len(books))
	for _, b := range books {
		author, ok := authors[b.AuthorID]
		if !ok {
			continue
		}
		if filter.Author != nil && author.Name != *filter.Author {
			continue
		}
		if filter.Genre != nil && !storage.MatchesGenre(b.Genres, *filter.Genre) {
			continue
		}
		if b.Genres == nil {
			b.Genres = []string{}
		}
		b.Author = author.Clone()
		result = append(result, b)
	}
	return result, nil
}

// getDocuments читает документы через MGET; отсутствующие ключи пропускаются
func (s *Store) getDocuments(ctx context.Context, keys []string, decode func(string) error) error {
	if len(keys) == 0 {
		return nil
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return err
	}
	for i, v := range values {
		data, ok := v.(string)
		if !ok {
			utils.Logger.Debug("Document is missing", zap.String("key", keys[i]))
			continue
		}
		if err := decode(data); err != nil {
			return fmt.Errorf("decode %s: %w", keys[i], err)
		}
	}
	return nil
}

func (s *Store) authorsByID(ctx context.Context, ids []string) (map[string]*models.Author, error) {
	authors := make(map[string]*models.Author, len(ids))
	err := s.getDocuments(ctx, lo.Map(ids, func(id string, _ int) string { return s.authorKey(id) }), func(data string) error {
		var a models.Author
		if err := json.Unmarshal([]byte(data), &a); err != nil {
			return err
		}
		authors[a.ID] = &a
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load authors: %w", err)
	}
	return authors, nil
}

func (s *Store) FindAllAuthors(ctx context.Context) ([]*models.Author, error) {
	ids, err := s.client.LRange(ctx, s.key("authors"), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}

	byID, err := s.authorsByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	authors := make([]*models.Author, 0, len(ids))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			authors = append(authors, a)
		}
	}
	return authors, nil
}

func (s *Store) FindAuthorByName(ctx context.Context, name string) (*models.Author, error) {
	id, err := s.client.HGet(ctx, s.key("authors", "by_name"), name).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find author %q: %w", name, err)
	}
	return s.getAuthor(ctx, id)
}

func (s *Store) getAuthor(ctx context.Context, id string) (*models.Author, error) {
	var author models.Author
	found, err := s.getJSON(ctx, s.authorKey(id), &author)
	if err != nil || !found {
		return nil, err
	}
	return &author, nil
}

func (s *Store) getJSON(ctx context.Context, key string, v interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) CountBooksByAuthor(ctx context.Context, authorID string) (int, error) {
	n, err := s.client.SCard(ctx, s.key("books", "author", authorID)).Result()
	if err != nil {
		return 0, fmt.Errorf("count books of %s: %w", authorID, err)
	}
	return int(n), nil
}

func (s *Store) CountBooksByAuthors(ctx context.Context, authorIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(authorIDs))
	if len(authorIDs) == 0 {
		return counts, nil
	}

	cmds := make(map[string]*redis.IntCmd, len(authorIDs))
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range authorIDs {
			cmds[id] = pipe.SCard(ctx, s.key("books", "author", id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("count books by authors: %w", err)
	}

	for id, cmd := range cmds {
		counts[id] = int(cmd.Val())
	}
	return counts, nil
}

func (s *Store) SaveAuthor(ctx context.Context, author *models.Author) (*models.Author, error) {
	if err := author.Validate(); err != nil {
		return nil, err
	}

	stored := author.Clone()
	var existing *models.Author
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	} else {
		var err error
		if existing, err = s.getAuthor(ctx, stored.ID); err != nil {
			return nil, err
		}
	}

	nameIndex := s.key("authors", "by_name")
	nameChanged := existing == nil || existing.Name != stored.Name
	if nameChanged {
		// Уникальность имени обеспечивает атомарный HSETNX
		ok, err := s.client.HSetNX(ctx, nameIndex, stored.Name, stored.ID).Result()
		if err != nil {
			return nil, fmt.Errorf("reserve author name: %w", err)
		}
		if !ok {
			return nil, models.NewDuplicateError("Author", "name", stored.Name)
		}
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return nil, err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.authorKey(stored.ID), data, 0)
		if existing == nil {
			pipe.RPush(ctx, s.key("authors"), stored.ID)
		} else if nameChanged {
			pipe.HDel(ctx, nameIndex, existing.Name)
		}
		return nil
	})
	if err != nil {
		if nameChanged {
			s.client.HDel(context.Background(), nameIndex, stored.Name)
		}
		return nil, fmt.Errorf("save author: %w", err)
	}

	return stored, nil
}

func (s *Store) SaveBook(ctx context.Context, book *models.Book) (*models.Book, error) {
	if err := book.Validate(); err != nil {
		return nil, err
	}

	stored := book.Clone()
	stored.Author = nil
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return nil, err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.bookKey(stored.ID), data, 0)
		pipe.RPush(ctx, s.key("books"), stored.ID)
		pipe.SAdd(ctx, s.key("books", "author", stored.AuthorID), stored.ID)
		for _, genre := range lo.Uniq(stored.Genres) {
			pipe.SAdd(ctx, s.key("books", "genre", genre), stored.ID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save book: %w", err)
	}

	author, err := s.getAuthor(ctx, stored.AuthorID)
	if err != nil {
		return nil, err
	}
	stored.Author = author
	return stored, nil
}

func (s *Store) SaveUser(ctx context.Context, user *models.User) (*models.User, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}

	stored := user.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}

	usernameIndex := s.key("users", "by_username")
	ok, err := s.client.HSetNX(ctx, usernameIndex, stored.Username, stored.ID).Result()
	if err != nil {
		return nil, fmt.Errorf("reserve username: %w", err)
	}
	if !ok {
		return nil, models.NewDuplicateError("User", "username", stored.Username)
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return nil, err
	}
	if err := s.client.Set(ctx, s.userKey(stored.ID), data, 0).Err(); err != nil {
		s.client.HDel(context.Background(), usernameIndex, stored.Username)
		return nil, fmt.Errorf("save user: %w", err)
	}

	return stored, nil
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	id, err := s.client.HGet(ctx, s.key("users", "by_username"), username).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user %q: %w", username, err)
	}
	return s.FindUserByID(ctx, id)
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	found, err := s.getJSON(ctx, s.userKey(id), &user)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return nil
}
