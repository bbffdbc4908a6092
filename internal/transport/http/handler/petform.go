package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"lostfound/internal/core/errs"
	"lostfound/internal/domain"
	"lostfound/internal/service"
	"lostfound/internal/transport/http/ez"
)

const photosField = "photos"

// formValues reads pet fields from a multipart form or a JSON object.
// Nested values arrive as JSON text in either case.
type formValues func(key string) (string, bool)

func multipartValues(form *multipart.Form) formValues {
	return func(key string) (string, bool) {
		v, ok := form.Value[key]
		if !ok || len(v) == 0 {
			return "", false
		}
		return v[0], true
	}
}

func jsonValues(body io.Reader) (formValues, error) {
	raw := map[string]json.RawMessage{}
	if err := json.NewDecoder(body).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, ez.BindError(err)
	}
	return func(key string) (string, bool) {
		v, ok := raw[key]
		if !ok || string(v) == "null" {
			return "", false
		}
		var s string
		if json.Unmarshal(v, &s) == nil {
			return s, true
		}
		return string(v), true
	}, nil
}

// readPetRequest parses the body of a create or update request and returns
// the input together with any uploaded photos.
func readPetRequest(c *gin.Context) (service.PetInput, []service.PhotoFile, error) {
	var (
		get   formValues
		files []service.PhotoFile
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		form, err := c.MultipartForm()
		if err != nil {
			return service.PetInput{}, nil, formError(err)
		}
		get = multipartValues(form)
		files = photoFiles(form.File[photosField])
	} else {
		v, err := jsonValues(c.Request.Body)
		if err != nil {
			return service.PetInput{}, nil, err
		}
		get = v
	}
	in, err := parsePetInput(get)
	return in, files, err
}

func formError(err error) error {
	var mb *http.MaxBytesError
	if errors.As(err, &mb) {
		return ez.Translate(err)
	}
	if errors.Is(err, multipart.ErrMessageTooLarge) {
		return &errs.Error{Code: http.StatusRequestEntityTooLarge, Msg: "Request entity too large", Err: err}
	}
	return errs.BadRequest("Invalid multipart form")
}

func photoFiles(hs []*multipart.FileHeader) []service.PhotoFile {
	out := make([]service.PhotoFile, 0, len(hs))
	for _, h := range hs {
		out = append(out, service.PhotoFile{
			Filename:    h.Filename,
			ContentType: h.Header.Get("Content-Type"),
			Size:        h.Size,
			Open: func() (io.ReadCloser, error) {
				return h.Open()
			},
		})
	}
	return out
}

func parsePetInput(get formValues) (service.PetInput, error) {
	var in service.PetInput
	bad := errs.Fields{}

	str := func(key string) *string {
		if v, ok := get(key); ok {
			return &v
		}
		return nil
	}
	num := func(key string) *float64 {
		v, ok := get(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			bad.Add(key, key+" must be a number")
			return nil
		}
		return &f
	}
	flag := func(key string) *bool {
		v, ok := get(key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			bad.Add(key, key+" must be true or false")
			return nil
		}
		return &b
	}

	in.Name, in.Breed, in.Color = str("name"), str("breed"), str("color")
	in.AdditionalNotes, in.MicrochipNumber = str("additionalNotes"), str("microchipNumber")
	in.Age, in.Weight = num("age"), num("weight")
	in.IsApproved, in.IsActive = flag("isApproved"), flag("isActive")
	if v := str("type"); v != nil {
		t := domain.PetType(*v)
		in.Type = &t
	}
	if v := str("gender"); v != nil {
		g := domain.Gender(*v)
		in.Gender = &g
	}
	if v := str("status"); v != nil {
		s := domain.PetStatus(*v)
		in.Status = &s
	}
	if v := str("ageUnit"); v != nil && *v != "" {
		u := domain.AgeUnit(*v)
		in.AgeUnit = &u
	}
	if v := str("weightUnit"); v != nil && *v != "" {
		u := domain.WeightUnit(*v)
		in.WeightUnit = &u
	}

	if v, ok := get("lastSeenLocation"); ok {
		var loc domain.Location
		err := json.Unmarshal([]byte(v), &loc)
		switch {
		case errors.Is(err, domain.ErrBadCoordinates):
			bad.Add("lastSeenLocation.coordinates", "Coordinates must be [longitude, latitude]")
		case err != nil:
			return in, errs.BadRequest("Invalid location data format")
		default:
			in.Location = &loc
		}
	}
	if v, ok := get("lastSeenDate"); ok && strings.TrimSpace(v) != "" {
		if t, err := service.ParseDate(v); err != nil {
			bad.Add("lastSeenDate", "Invalid date format")
		} else {
			in.LastSeenDate = &t
		}
	}
	if v, ok := get("collar"); ok {
		var col domain.Collar
		if err := json.Unmarshal([]byte(v), &col); err != nil {
			bad.Add("collar", "Collar must be a JSON object")
		} else {
			in.Collar = &col
		}
	}
	if v, ok := get("tags"); ok {
		tags := []string{}
		if json.Unmarshal([]byte(v), &tags) != nil {
			tags = strings.Split(v, ",")
		}
		in.Tags = &tags
	}
	for _, key := range []string{"existingPhotos", photosField} {
		v, ok := get(key)
		if !ok {
			continue
		}
		kept := []string{}
		if err := json.Unmarshal([]byte(v), &kept); err != nil {
			bad.Add(key, "Retained photos must be a JSON array of URLs")
		}
		in.RetainedPhotos = &kept
		break
	}
	return in, bad.Err()
}
