package book

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xiebiao/bookcatalog/internal/application/command"
	"github.com/xiebiao/bookcatalog/internal/domain/author"
	"github.com/xiebiao/bookcatalog/internal/domain/book"
	"github.com/xiebiao/bookcatalog/internal/domain/category"
	"github.com/xiebiao/bookcatalog/internal/domain/shared"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

// CommandUseCase 图书写命令
// 设计说明:
// 1. 发布前解析作者和分类，任意一个id不存在返回NotFound
// 2. 解析出的作者和分类作为快照内嵌在命令里
// 3. 本地化数据在发布前分配id，同一条消息重投时id不变
type CommandUseCase struct {
	books      book.Repository
	authors    author.Repository
	categories category.Repository
	publisher  command.Publisher
	now        func() time.Time
}

// NewCommandUseCase 创建图书写命令用例
func NewCommandUseCase(
	books book.Repository,
	authors author.Repository,
	categories category.Repository,
	publisher command.Publisher,
) *CommandUseCase {
	return &CommandUseCase{
		books:      books,
		authors:    authors,
		categories: categories,
		publisher:  publisher,
		now:        time.Now,
	}
}

// DataInput 本地化的标题与简介
type DataInput struct {
	Title    string
	Summary  *string
	Language string
}

// Fields 图书的可修改字段
type Fields struct {
	ISBNCode    string
	Editor      string
	Edition     int
	Type        book.Type
	PublishDate shared.Date
	AuthorIDs   []uuid.UUID
	CategoryIDs []uuid.UUID
	Data        []DataInput
}

// CreateRequest 新建图书
type CreateRequest struct {
	Fields
	Actor string
}

// UpdateRequest 修改图书，Version为客户端读到的版本
type UpdateRequest struct {
	ID uuid.UUID
	Fields
	Version int
	Actor   string
}

// Create 发布新建命令
func (uc *CommandUseCase) Create(ctx context.Context, req CreateRequest) (*book.Book, error) {
	id, err := shared.NewID()
	if err != nil {
		return nil, err
	}
	b := req.Fields.build(id)
	b.Metadata = shared.NewMetadata(req.Actor, uc.now())
	return b, uc.publish(ctx, b)
}

// Update 发布修改命令
func (uc *CommandUseCase) Update(ctx context.Context, req UpdateRequest) (*book.Book, error) {
	existing, err := uc.books.FindByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, book.ErrBookNotFound
	}

	meta, err := shared.Revise(existing.Metadata, req.Version, req.Actor, uc.now())
	if err != nil {
		return nil, err
	}
	b := req.Fields.build(existing.ID)
	b.Metadata = meta
	return b, uc.publish(ctx, b)
}

// Delete 发布删除命令
func (uc *CommandUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	return uc.publisher.Publish(ctx, command.BookDeletion, shared.Deletion{ID: id})
}

func (f Fields) build(id uuid.UUID) *book.Book {
	b := &book.Book{
		ID:          id,
		ISBNCode:    strings.TrimSpace(f.ISBNCode),
		Editor:      f.Editor,
		Edition:     f.Edition,
		Type:        f.Type,
		PublishDate: f.PublishDate,
		AuthorIDs:   f.AuthorIDs,
		CategoryIDs: f.CategoryIDs,
	}
	if b.CategoryIDs == nil {
		b.CategoryIDs = []uuid.UUID{}
	}
	for _, d := range f.Data {
		b.Data = append(b.Data, book.Data{Title: d.Title, Summary: d.Summary, Language: d.Language})
	}
	return b
}

// publish 解析关联、补齐本地化数据、校验后发布
func (uc *CommandUseCase) publish(ctx context.Context, b *book.Book) error {
	if len(b.AuthorIDs) == 0 {
		return book.ErrNoAuthors
	}
	if err := uc.resolve(ctx, b); err != nil {
		return err
	}
	if err := b.FillData(); err != nil {
		return err
	}
	if err := b.Validate(); err != nil {
		return err
	}
	return uc.publisher.Publish(ctx, command.BookUpsert, b)
}

// resolve 查出全部作者和分类并内嵌到图书
func (uc *CommandUseCase) resolve(ctx context.Context, b *book.Book) error {
	authors, err := uc.authors.FindByIDs(ctx, b.AuthorIDs)
	if err != nil {
		return err
	}
	if missing := missingIDs(b.AuthorIDs, authorIDs(authors)); len(missing) > 0 {
		return apperrors.New(apperrors.ErrCodeNotFound, fmt.Sprintf("作者不存在: %v", missing))
	}

	categories, err := uc.categories.FindByIDs(ctx, b.CategoryIDs)
	if err != nil {
		return err
	}
	if missing := missingIDs(b.CategoryIDs, categoryIDs(categories)); len(missing) > 0 {
		return apperrors.New(apperrors.ErrCodeNotFound, fmt.Sprintf("图书分类不存在: %v", missing))
	}

	b.Authors, b.Categories = authors, categories
	return nil
}

func authorIDs(authors []*author.Author) map[uuid.UUID]struct{} {
	ids := make(map[uuid.UUID]struct{}, len(authors))
	for _, a := range authors {
		ids[a.ID] = struct{}{}
	}
	return ids
}

func categoryIDs(categories []*category.Category) map[uuid.UUID]struct{} {
	ids := make(map[uuid.UUID]struct{}, len(categories))
	for _, c := range categories {
		ids[c.ID] = struct{}{}
	}
	return ids
}

func missingIDs(want []uuid.UUID, found map[uuid.UUID]struct{}) []uuid.UUID {
	var missing []uuid.UUID
	for _, id := range want {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
