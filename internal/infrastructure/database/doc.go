// Package database opens the SQLite file that backs the command audit log
// and applies its schema migrations.
//
// The connection uses WAL mode and a busy timeout, and is limited to one
// open connection since SQLite has a single writer. Migrations are plain
// .sql files named <version>_<description>.sql, read from any fs.FS (the
// migrations package embeds them into the binary). They are additive only:
// there is no down direction.
package database
