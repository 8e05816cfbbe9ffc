package client

import (
	"context"
	"io"
	"net/http"
)

// UpdateMeInput carries the editable profile fields. Nil fields are left
// untouched server-side.
type UpdateMeInput struct {
	FirstName *string
	LastName  *string
	Phone     *string
	City      *string

	// ProfilePicture replaces the stored picture when set.
	ProfilePictureName   string
	ProfilePictureReader io.Reader
}

// UpdateStoreProfileInput carries the editable storefront fields.
type UpdateStoreProfileInput struct {
	StoreName      *string
	Address        *string
	InstagramLink  *string
	Twogis         *string
	WhatsappNumber *string

	LogoName   string
	LogoReader io.Reader
}

// Me fetches the profile, including the active order when one exists, and
// caches it on the session.
func (c *Client) Me(ctx context.Context) (*UserData, error) {
	var user UserData
	if err := c.do(ctx, http.MethodGet, "/me/", nil, nil, nil, &user); err != nil {
		return nil, err
	}
	c.session.SetUser(&user)
	return &user, nil
}

// UpdateMe sends the present fields as multipart form data and returns the
// updated profile.
func (c *Client) UpdateMe(ctx context.Context, in UpdateMeInput) (*UserData, error) {
	payload := &multipartPayload{fields: map[string]string{}, files: map[string]filePayload{}}
	setField(payload.fields, "first_name", in.FirstName)
	setField(payload.fields, "last_name", in.LastName)
	setField(payload.fields, "phone", in.Phone)
	setField(payload.fields, "city", in.City)
	if in.ProfilePictureReader != nil {
		payload.files["profile_picture"] = filePayload{name: in.ProfilePictureName, reader: in.ProfilePictureReader}
	}

	var user UserData
	if err := c.do(ctx, http.MethodPut, "/me/", nil, nil, payload, &user); err != nil {
		return nil, err
	}
	c.session.SetUser(&user)
	return &user, nil
}

// SetUserType switches the account between client and store.
func (c *Client) SetUserType(ctx context.Context, userType string) (*UserData, error) {
	if userType != UserTypeClient && userType != UserTypeStore {
		return nil, &ValidationError{Fields: []string{"user_type"}}
	}

	payload := &multipartPayload{fields: map[string]string{"user_type": userType}}
	var user UserData
	if err := c.do(ctx, http.MethodPatch, "/me/", nil, nil, payload, &user); err != nil {
		return nil, err
	}
	c.session.SetUser(&user)
	return &user, nil
}

// FetchStoreProfile fetches the storefront of the authenticated store user
// and caches it on the session.
func (c *Client) FetchStoreProfile(ctx context.Context) (*StoreProfileData, error) {
	var profile StoreProfileData
	if err := c.do(ctx, http.MethodGet, "/store/profile/", nil, nil, nil, &profile); err != nil {
		return nil, err
	}
	c.session.SetStoreProfile(&profile)
	return &profile, nil
}

// UpdateStoreProfile upserts the storefront from the present fields.
func (c *Client) UpdateStoreProfile(ctx context.Context, in UpdateStoreProfileInput) (*StoreProfileData, error) {
	payload := &multipartPayload{fields: map[string]string{}, files: map[string]filePayload{}}
	setField(payload.fields, "store_name", in.StoreName)
	setField(payload.fields, "address", in.Address)
	setField(payload.fields, "instagram_link", in.InstagramLink)
	setField(payload.fields, "twogis", in.Twogis)
	setField(payload.fields, "whatsapp_number", in.WhatsappNumber)
	if in.LogoReader != nil {
		payload.files["logo"] = filePayload{name: in.LogoName, reader: in.LogoReader}
	}

	var profile StoreProfileData
	if err := c.do(ctx, http.MethodPut, "/store/profile/", nil, nil, payload, &profile); err != nil {
		return nil, err
	}
	c.session.SetStoreProfile(&profile)
	return &profile, nil
}

func setField(fields map[string]string, key string, value *string) {
	if value != nil {
		fields[key] = *value
	}
}
