package response

import "net/http"

// 对外固定文案
const (
	MsgIncorrectForm = "incorrect form"
	MsgInvalidID     = "invalid user id"
	MsgNotFound      = "no user found"
	MsgDuplicate     = "email already exists"
	MsgServerError   = "internal server error"
	MsgBodyTooLarge  = "request body too large"
	MsgServerBusy    = "server busy"
)

// CodeMsgMap status → 默认文案
var CodeMsgMap = map[int]string{
	http.StatusBadRequest:            MsgIncorrectForm,
	http.StatusNotFound:              MsgNotFound,
	http.StatusConflict:              MsgDuplicate,
	http.StatusRequestEntityTooLarge: MsgBodyTooLarge,
	http.StatusInternalServerError:   MsgServerError,
	http.StatusServiceUnavailable:    MsgServerBusy,
}
