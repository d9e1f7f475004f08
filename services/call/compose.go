// File: services/call/compose.go
package call

import "fmt"

// ComposeMessage builds the spoken Spanish notification from the resolved
// appointment fields. Empty optional fields fall back to generic wording.
func ComposeMessage(patientName, date, timeOfDay, serviceType, organizationName string) string {
	if patientName == "" {
		patientName = "paciente"
	}
	if serviceType == "" {
		serviceType = "su cita médica"
	}
	if organizationName == "" {
		organizationName = "el hospital"
	}

	return fmt.Sprintf(
		"Hola %s. "+
			"Llamo de %s para informarle que tiene una cita asignada "+
			"para %s el día %s a las %s. "+
			"Presione 1 para confirmar su asistencia, o presione 2 si necesita reagendar. "+
			"Gracias.",
		patientName, organizationName, serviceType, date, timeOfDay,
	)
}
