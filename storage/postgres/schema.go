package postgres

// schema создает таблицы каталога. seq хранит порядок вставки.
// books.author_id намеренно без внешнего ключа: книга переживает удаление автора,
// а выборка такие книги пропускает.
const schema = `
CREATE TABLE IF NOT EXISTS authors (
	seq  BIGSERIAL,
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	born INTEGER
);
CREATE UNIQUE INDEX IF NOT EXISTS authors_name_key ON authors (name);

CREATE TABLE IF NOT EXISTS books (
	seq       BIGSERIAL,
	id        TEXT PRIMARY KEY,
	title     TEXT NOT NULL,
	published INTEGER NOT NULL,
	genres    TEXT[] NOT NULL DEFAULT '{}',
	author_id TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS books_author_id_idx ON books (author_id);
CREATE INDEX IF NOT EXISTS books_genres_idx ON books USING GIN (genres);

CREATE TABLE IF NOT EXISTS users (
	id             TEXT PRIMARY KEY,
	username       TEXT NOT NULL,
	favorite_genre TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS users_username_key ON users (username);
`
