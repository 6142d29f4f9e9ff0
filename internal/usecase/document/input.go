package document

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/kailas-cloud/kbase/internal/domain"
	domdoc "github.com/kailas-cloud/kbase/internal/domain/document"
)

// Input limits.
const (
	MaxTitleLength = 300
	MaxTags        = 32
	MaxTagLength   = 64
)

// CreateInput carries the fields of a new document.
type CreateInput struct {
	Title   string
	Content string
	Tags    []string
}

// UpdateInput carries a full replacement of the editable fields. Summary is
// applied only when set and non-empty.
type UpdateInput struct {
	Title   string
	Content string
	Tags    []string
	Summary *string
}

// Validate checks the create request.
func (in *CreateInput) Validate() error {
	return validateFields(&in.Title, &in.Content, &in.Tags)
}

// Validate checks the update request.
func (in *UpdateInput) Validate() error {
	return validateFields(&in.Title, &in.Content, &in.Tags)
}

func validateFields(title, content *string, tags *[]string) error {
	*title = strings.TrimSpace(*title)
	err := validation.Errors{
		"title": validation.Validate(*title,
			validation.Required,
			validation.RuneLength(1, MaxTitleLength),
		),
		"content": validation.Validate(*content,
			validation.Required,
			validation.By(notBlank),
			validation.Length(1, domdoc.MaxContentSize),
		),
		"tags": validation.Validate(*tags,
			validation.Length(0, MaxTags),
			validation.Each(validation.RuneLength(0, MaxTagLength)),
		),
	}.Filter()
	return toDomainError(err)
}

func notBlank(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}

// toDomainError converts ozzo validation errors into domain.ValidationError.
func toDomainError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return &domain.ValidationError{Fields: map[string]string{"request": err.Error()}}
	}
	fields := make(map[string]string, len(verrs))
	for name, e := range verrs {
		fields[name] = e.Error()
	}
	return &domain.ValidationError{Fields: fields}
}
