package get_available_slots

import (
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	getAvailableSlots "github.com/m04kA/SMC-SchedulingService/internal/usecase/get_available_slots"
)

// ToUseCaseRequest собирает запрос из пути и query: from, to (обязательны), serviceId
func ToUseCaseRequest(r *http.Request) (*getAvailableSlots.Request, error) {
	businessID, err := handlers.PathInt64(r, "businessId")
	if err != nil {
		return nil, err
	}
	workerID, err := handlers.PathInt64(r, "workerId")
	if err != nil {
		return nil, err
	}
	serviceID, err := handlers.QueryInt64(r, "serviceId")
	if err != nil {
		return nil, err
	}
	from, err := handlers.RequiredQueryTime(r, "from")
	if err != nil {
		return nil, err
	}
	to, err := handlers.RequiredQueryTime(r, "to")
	if err != nil {
		return nil, err
	}

	return &getAvailableSlots.Request{
		BusinessProfileID: businessID,
		WorkerID:          workerID,
		ServiceID:         serviceID,
		From:              from,
		To:                to,
	}, nil
}
