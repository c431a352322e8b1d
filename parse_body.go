package hubx

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"reflect"
	"strconv"
	"strings"
)

// maxMemory bounds the part of a multipart body kept in memory; the rest
// of the uploaded files spill to temporary files.
const maxMemory = 32 << 20

var fileHeaderType = reflect.TypeOf([]*multipart.FileHeader(nil))

// ParseBody parses the body of a form posted to the local UI into the
// provided struct based on the Content-Type header.
//
// Supported content types:
//   - application/x-www-form-urlencoded, multipart/form-data, text/plain:
//     Uses `form:"fieldname"` struct tags to map form fields to struct fields.
//   - application/json: Uses `json` struct tags for mapping.
//   - application/xml: Uses `xml` struct tags for mapping.
//
// The dst parameter must be a pointer to a struct.
//
// Form parsing supports string, signed and unsigned integers, floats,
// bools ("on"/"off", "1"/"0", "yes"/"no", "true"/"false") and slices of
// those. For multipart forms a field of type []*multipart.FileHeader
// receives the uploaded files of that name.
//
// Form struct tags can specify options, e.g.:
//
//	type listingForm struct {
//	    Title  string                  `form:"title,required"`
//	    Price  float64                 `form:"price,required"`
//	    Images []*multipart.FileHeader `form:"images"`
//	}
//
// The only supported option currently is "required".
func ParseBody(r *http.Request, dst any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return fmt.Errorf("content type not supported")
	}

	switch mediaType {
	case "application/x-www-form-urlencoded", "text/plain":
		if err := r.ParseForm(); err != nil {
			return fmt.Errorf("failed to parse form: %w", err)
		}
		return parseBodyForm(r, dst)
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return fmt.Errorf("failed to parse form: %w", err)
		}
		return parseBodyForm(r, dst)
	case "application/json":
		return parseBodyJSON(r, dst)
	case "application/xml":
		return parseBodyXML(r, dst)
	default:
		return fmt.Errorf("content type not supported")
	}
}

// parseBodyForm maps the parsed form of r onto dst using `form` struct
// tags, validating required fields and converting values with
// bindFieldValue.
func parseBodyForm(r *http.Request, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Ptr {
		return errors.New("destination must be a pointer to a struct")
	}

	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return errors.New("destination must be a pointer to a struct")
	}

	rt := rv.Type()

	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		fieldType := rt.Field(i)

		if !field.CanSet() {
			continue
		}

		formTag := fieldType.Tag.Get("form")
		if formTag == "" || formTag == "-" {
			continue
		}

		tagParts := strings.Split(formTag, ",")
		fieldName := tagParts[0]

		required := false
		for _, option := range tagParts[1:] {
			if option == "required" {
				required = true
				break
			}
		}

		if field.Type() == fileHeaderType {
			var files []*multipart.FileHeader
			if r.MultipartForm != nil {
				files = r.MultipartForm.File[fieldName]
			}
			if required && len(files) == 0 {
				return fmt.Errorf("required field '%s' is missing", fieldName)
			}
			field.Set(reflect.ValueOf(files))
			continue
		}

		formValues := r.Form[fieldName]

		if required && (len(formValues) == 0 || formValues[0] == "") {
			return fmt.Errorf("required field '%s' is missing", fieldName)
		}

		if len(formValues) == 0 {
			continue
		}

		if err := bindFieldValue(field, formValues); err != nil {
			return fmt.Errorf("failed to bind field '%s': %w", fieldName, err)
		}
	}

	return nil
}

// bindFieldValue converts and assigns form values to a struct field.
func bindFieldValue(field reflect.Value, values []string) error {
	if len(values) == 0 {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(values[0])

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		val, err := strconv.ParseInt(values[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value: %s", values[0])
		}
		field.SetInt(val)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		val, err := strconv.ParseUint(values[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid unsigned integer value: %s", values[0])
		}
		field.SetUint(val)

	case reflect.Float32, reflect.Float64:
		val, err := strconv.ParseFloat(values[0], 64)
		if err != nil {
			return fmt.Errorf("invalid float value: %s", values[0])
		}
		field.SetFloat(val)

	case reflect.Bool:
		val, err := strconv.ParseBool(values[0])
		if err != nil {
			// Handle common HTML form boolean representations
			switch strings.ToLower(values[0]) {
			case "on", "1", "yes", "true":
				val = true
			case "off", "0", "no", "false", "":
				val = false
			default:
				return fmt.Errorf("invalid boolean value: %s", values[0])
			}
		}
		field.SetBool(val)

	case reflect.Slice:
		sliceType := field.Type()

		slice := reflect.MakeSlice(sliceType, len(values), len(values))

		for i, value := range values {
			elem := slice.Index(i)
			if err := bindFieldValue(elem, []string{value}); err != nil {
				return fmt.Errorf("failed to bind slice element at index %d: %w", i, err)
			}
		}

		field.Set(slice)
		return nil

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// parseBodyJSON parses JSON data from the HTTP request body into a struct.
//
// This function reads the entire request body and uses json.Unmarshal
// to decode the JSON data into the destination struct. The struct should
// use `json` struct tags to control field mapping.
//
// Returns an error if the request body cannot be read or if JSON
// unmarshaling fails.
func parseBodyJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, dst)
}

// parseBodyXML parses XML data from the HTTP request body into a struct.
//
// This function reads the entire request body and uses xml.Unmarshal
// to decode the XML data into the destination struct. The struct should
// use `xml` struct tags to control field mapping.
//
// Returns an error if the request body cannot be read or if XML
// unmarshaling fails.
func parseBodyXML(r *http.Request, dst any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return xml.Unmarshal(body, dst)
}
