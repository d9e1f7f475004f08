// File: services/call/twiml.go
//
// Voice-script (TwiML) documents served back to the telephony provider.
package call

import (
	"fmt"

	"asignaciones/models"
)

// instructionsTwiML plays the synthesized audio and gathers one DTMF digit;
// if the patient presses nothing it says goodbye.
func instructionsTwiML(serverHost, callID string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
    <Gather numDigits="1" action="%s/handle-response/%s" method="POST" timeout="10">
        <Play>%s/audio/%s</Play>
    </Gather>
    <Say language="es-MX">No recibimos ninguna respuesta. Hasta luego.</Say>
</Response>`, serverHost, callID, serverHost, callID)
}

// responseTwiML closes the call after a DTMF response.
func responseTwiML(response string) string {
	var say string
	switch response {
	case models.ResponseConfirmed:
		say = "Gracias por confirmar su cita. Hasta pronto."
	case models.ResponseReschedule:
		say = "Entendido. Nos comunicaremos para reagendar su cita. Hasta pronto."
	default:
		say = "Opción no reconocida. Hasta luego."
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
    <Say language="es-MX">%s</Say>
</Response>`, say)
}
