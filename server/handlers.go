package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nixxel-company-limited/escpos-http-bridge/logger"
	"github.com/nixxel-company-limited/escpos-http-bridge/printer"
	"go.uber.org/zap"
)

// Response bodies
const (
	msgSuccess               = "Data sent to printer successfully!"
	msgInvalidConnectionType = "Invalid connection type."
	msgInvalidPort           = "Invalid port number. Please enter a number between 0 and 65535."
	msgMissingAddress        = "Printer address is required."
	msgInvalidRequest        = "Invalid request."
	msgPrintFailed           = "Error printing data: "
)

type printForm struct {
	ConnectionType string `form:"connectionType"`
	IP             string `form:"ip"`
	Port           string `form:"port"`
}

const formHTML = `<html>
    <head>
        <title>Thermal Printer</title>
    </head>
    <body>
        <h1>Send Data to Thermal Printer</h1>
        <form method="POST" action="/print">
            <label for="connectionType">Select Connection Type:</label>
            <select id="connectionType" name="connectionType" required>
                <option value="usb">USB</option>
                <option value="wifi">Wi-Fi</option>
                <option value="bluetooth">Bluetooth</option>
            </select>
            <br><br>
            <label for="ip">Enter Printer IP Address:</label>
            <input type="text" id="ip" name="ip" placeholder="192.168.0.99">
            <br><br>
            <label for="port">Enter Port Number:</label>
            <input type="text" id="port" name="port" placeholder="9100">
            <br><br>
            <button type="submit">Print</button>
        </form>
    </body>
</html>
`

func (s *Server) handleForm(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(formHTML))
}

func (s *Server) handlePrint(c *gin.Context) {
	log := logger.FromContext(c)

	var form printForm
	if err := c.ShouldBind(&form); err != nil {
		text(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	target, err := s.validator.Validate(form.ConnectionType, form.IP, form.Port)
	if err != nil {
		log.Warn("Rejected print request", zap.Error(err))
		text(c, http.StatusBadRequest, validationMessage(err))
		return
	}

	// A client hanging up must not abort a print half way; the manager's
	// timeout bounds the session instead.
	ctx := context.WithoutCancel(c.Request.Context())

	if err := s.printer.Print(ctx, target, s.job()); err != nil {
		_ = c.Error(err)
		var pe *printer.PrintError
		if errors.As(err, &pe) {
			text(c, http.StatusInternalServerError, pe.Error())
			return
		}
		text(c, http.StatusInternalServerError, msgPrintFailed+err.Error())
		return
	}

	text(c, http.StatusOK, msgSuccess)
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, printer.ErrInvalidConnectionType):
		return msgInvalidConnectionType
	case errors.Is(err, printer.ErrInvalidPort):
		return msgInvalidPort
	case errors.Is(err, printer.ErrMissingAddress):
		return msgMissingAddress
	default:
		return msgInvalidRequest
	}
}

// text writes a plain-text body verbatim
func text(c *gin.Context, code int, body string) {
	c.Data(code, "text/plain; charset=utf-8", []byte(body))
}
