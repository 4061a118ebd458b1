package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/foliohq/folio/book"
)

// BookSummary is the list view of a book, without the page payload.
type BookSummary struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"ownerId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateBook stores a new book owned by ownerID. The page tree is kept as a
// single jsonb document; collaborative edits replace the whole document.
func (s *Store) CreateBook(ctx context.Context, ownerID int64, b *book.Book) (*book.Book, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	b.OwnerID = ownerID
	doc, err := b.Encode()
	if err != nil {
		return nil, err
	}
	err = s.Pool.QueryRow(ctx,
		`INSERT INTO books (owner_id, title, doc) VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		ownerID, b.Title, doc,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	return b, nil
}

func (s *Store) GetBook(ctx context.Context, id int64) (*book.Book, error) {
	var (
		doc                  []byte
		createdAt, updatedAt time.Time
		ownerID              int64
		title                string
	)
	err := s.Pool.QueryRow(ctx,
		`SELECT owner_id, title, doc, created_at, updated_at FROM books WHERE id = $1`, id,
	).Scan(&ownerID, &title, &doc, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	b, err := book.Decode(doc)
	if err != nil {
		return nil, fmt.Errorf("decode book %d: %w", id, err)
	}
	b.ID, b.OwnerID, b.Title = id, ownerID, title
	b.CreatedAt, b.UpdatedAt = createdAt, updatedAt
	return b, nil
}

// ListBooks returns summaries of all books the user owns or is a member of.
func (s *Store) ListBooks(ctx context.Context, userID int64) ([]BookSummary, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT DISTINCT b.id, b.owner_id, b.title, b.created_at, b.updated_at
		 FROM books b
		 LEFT JOIN book_members m ON m.book_id = b.id
		 WHERE b.owner_id = $1 OR m.user_id = $1
		 ORDER BY b.updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var out []BookSummary
	for rows.Next() {
		var sum BookSummary
		if err := rows.Scan(&sum.ID, &sum.OwnerID, &sum.Title, &sum.CreatedAt, &sum.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan book row: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// UpdateBook replaces the document of an existing book.
func (s *Store) UpdateBook(ctx context.Context, b *book.Book) error {
	if err := b.Validate(); err != nil {
		return err
	}
	doc, err := b.Encode()
	if err != nil {
		return err
	}
	tag, err := s.Pool.Exec(ctx,
		`UPDATE books SET title = $2, doc = $3, updated_at = now() WHERE id = $1`,
		b.ID, b.Title, doc,
	)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteBook(ctx context.Context, id int64) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddMember grants a user editor access to a book.
func (s *Store) AddMember(ctx context.Context, bookID, userID int64, role string) error {
	if role == "" {
		role = "editor"
	}
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO book_members (book_id, user_id, role) VALUES ($1, $2, $3)
		 ON CONFLICT (book_id, user_id) DO UPDATE SET role = EXCLUDED.role`,
		bookID, userID, role,
	)
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// CanAccess reports whether the user owns the book or is a member.
func (s *Store) CanAccess(ctx context.Context, bookID, userID int64) (bool, error) {
	var ok bool
	err := s.Pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM books b
		   LEFT JOIN book_members m ON m.book_id = b.id AND m.user_id = $2
		   WHERE b.id = $1 AND (b.owner_id = $2 OR m.user_id IS NOT NULL)
		 )`,
		bookID, userID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check access: %w", err)
	}
	return ok, nil
}
