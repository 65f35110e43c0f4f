package app

import "sensechat/src/services/uploader"

// UploadEventMsg carries one tracker event into the update loop. The
// subscription command is re-issued after each one.
type UploadEventMsg struct {
	Event uploader.Event
}

// adminRejectedMsg reports that the backend refused the admin claim of
// the signed-in user.
type adminRejectedMsg struct {
	err error
}

type logoutConfirmedMsg struct{}

type loggedOutMsg struct{}

type quitConfirmedMsg struct{}

type bannerClearMsg struct {
	generation int
}
