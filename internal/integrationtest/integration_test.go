package integrationtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"gitlab.com/dirk.krummacker/contact-book/internal/service"
)

// setupService connects to the real database configured through the
// environment and returns the router. The whole package is skipped when no
// database is configured, so the unit test suite stays self-contained.
func setupService(t *testing.T) *gin.Engine {
	if os.Getenv("DBHOST") == "" {
		t.Skip("set DBHOST, DBUSER, and DBPWD to run the integration tests against a real database")
	}
	sqlDB := service.CreateDatabase()
	if err := service.EnsureSchema(sqlDB); err != nil {
		t.Fatalf("could not create the contacts table: %s", err)
	}
	service.SetupDatabaseWrapper(sqlDB)
	gin.SetMode(gin.ReleaseMode)
	return service.SetupHttpRouter()
}

// TestContactHappyPath tests a POST, GET, PUT, and DELETE with valid data.
func TestContactHappyPath(t *testing.T) {
	router := setupService(t)

	// test the endpoint for creating a contact
	postRecorder := httptest.NewRecorder()
	postRequest, _ := http.NewRequest("POST", "/api/contacts", strings.NewReader(`
		{
			"fullName": "Erika Mustermann",
			"email": "erika@example.com",
			"phone": "+49 0815 4711",
			"registeredDate": "2015-03-02T00:00:00Z",
			"age": 33,
			"address": {
				"street": {"number": 42, "name": "Musterstraße"},
				"city": "Berlin",
				"country": "Germany"
			},
			"picture": {
				"large": "https://example.com/erika-large.jpg",
				"medium": "https://example.com/erika-medium.jpg",
				"thumbnail": "https://example.com/erika-thumbnail.jpg"
			}
		}
	`))
	router.ServeHTTP(postRecorder, postRequest)
	assert.Equal(t, http.StatusCreated, postRecorder.Code)
	var postBody map[string]interface{}
	json.Unmarshal(postRecorder.Body.Bytes(), &postBody)
	assert.Equal(t, true, postBody["success"])
	postData := postBody["data"].(map[string]interface{})
	assert.Equal(t, "Erika Mustermann", postData["fullName"])
	assert.Equal(t, "erika@example.com", postData["email"])
	assert.Equal(t, "2015-03-02T00:00:00Z", postData["registeredDate"])
	id := postData["id"].(string)
	assert.Regexp(t, "^[0-9]+$", id)

	// test the endpoint for finding a contact
	getRecorder := httptest.NewRecorder()
	getRequest, _ := http.NewRequest("GET", "/api/contacts/"+id, nil)
	router.ServeHTTP(getRecorder, getRequest)
	assert.Equal(t, http.StatusOK, getRecorder.Code)
	var getBody map[string]interface{}
	json.Unmarshal(getRecorder.Body.Bytes(), &getBody)
	getData := getBody["data"].(map[string]interface{})
	assert.Equal(t, id, getData["id"])
	assert.Equal(t, "Erika Mustermann", getData["fullName"])
	address := getData["address"].(map[string]interface{})
	street := address["street"].(map[string]interface{})
	assert.Equal(t, 42.0, street["number"])
	assert.Equal(t, "Musterstraße", street["name"])

	// test the endpoint for updating a contact
	putRecorder := httptest.NewRecorder()
	putRequest, _ := http.NewRequest("PUT", "/api/contacts/"+id, strings.NewReader(`
		{
			"fullName": "Erika Schmidt",
			"email": "erika.schmidt@example.com",
			"registeredDate": "2015-03-02T00:00:00Z",
			"address": {
				"street": {"number": 7, "name": "Hauptstraße"},
				"city": "Hamburg"
			},
			"picture": {
				"large": "https://example.com/erika-large.jpg",
				"medium": "https://example.com/erika-medium.jpg",
				"thumbnail": "https://example.com/erika-thumbnail.jpg"
			}
		}
	`))
	router.ServeHTTP(putRecorder, putRequest)
	assert.Equal(t, http.StatusOK, putRecorder.Code)
	var putBody map[string]interface{}
	json.Unmarshal(putRecorder.Body.Bytes(), &putBody)
	putData := putBody["data"].(map[string]interface{})
	assert.Equal(t, id, putData["id"])
	assert.Equal(t, "Erika Schmidt", putData["fullName"])
	assert.Equal(t, "erika.schmidt@example.com", putData["email"])

	// test if a subsequent lookup of the contact returns the updated values
	getAgainRecorder := httptest.NewRecorder()
	getAgainRequest, _ := http.NewRequest("GET", "/api/contacts/"+id, nil)
	router.ServeHTTP(getAgainRecorder, getAgainRequest)
	assert.Equal(t, http.StatusOK, getAgainRecorder.Code)
	var getAgainBody map[string]interface{}
	json.Unmarshal(getAgainRecorder.Body.Bytes(), &getAgainBody)
	getAgainData := getAgainBody["data"].(map[string]interface{})
	assert.Equal(t, "Erika Schmidt", getAgainData["fullName"])
	againAddress := getAgainData["address"].(map[string]interface{})
	assert.Equal(t, "Hamburg", againAddress["city"])
	_, hasCountry := againAddress["country"]
	assert.False(t, hasCountry)

	// test the endpoint for deleting a contact
	deleteRecorder := httptest.NewRecorder()
	deleteRequest, _ := http.NewRequest("DELETE", "/api/contacts/"+id, nil)
	router.ServeHTTP(deleteRecorder, deleteRequest)
	assert.Equal(t, http.StatusOK, deleteRecorder.Code)

	// test that deleting the same contact again reports NOT FOUND
	deleteAgainRecorder := httptest.NewRecorder()
	deleteAgainRequest, _ := http.NewRequest("DELETE", "/api/contacts/"+id, nil)
	router.ServeHTTP(deleteAgainRecorder, deleteAgainRequest)
	assert.Equal(t, http.StatusNotFound, deleteAgainRecorder.Code)

	// test if a final lookup of the contact will correctly not find it
	getFinalRecorder := httptest.NewRecorder()
	getFinalRequest, _ := http.NewRequest("GET", "/api/contacts/"+id, nil)
	router.ServeHTTP(getFinalRecorder, getFinalRequest)
	assert.Equal(t, http.StatusNotFound, getFinalRecorder.Code)
	var getFinalBody map[string]interface{}
	json.Unmarshal(getFinalRecorder.Body.Bytes(), &getFinalBody)
	assert.Equal(t, "Contact not found", getFinalBody["error"])
}

// TestListOrdering creates three contacts and expects the list endpoint to
// return them newest first.
func TestListOrdering(t *testing.T) {
	router := setupService(t)

	ids := make([]string, 0, 3)
	for _, name := range []string{"Anton Ampel", "Berta Blume", "Carla Clever"} {
		recorder := httptest.NewRecorder()
		request, _ := http.NewRequest("POST", "/api/contacts", strings.NewReader(`
			{
				"fullName": "`+name+`",
				"email": "contact@example.com",
				"registeredDate": "2015-03-02T00:00:00Z",
				"address": {"street": {"number": 1, "name": "Teststraße"}},
				"picture": {
					"large": "https://example.com/large.jpg",
					"medium": "https://example.com/medium.jpg",
					"thumbnail": "https://example.com/thumbnail.jpg"
				}
			}
		`))
		router.ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusCreated, recorder.Code)
		var body map[string]interface{}
		json.Unmarshal(recorder.Body.Bytes(), &body)
		ids = append(ids, body["data"].(map[string]interface{})["id"].(string))
	}

	listRecorder := httptest.NewRecorder()
	listRequest, _ := http.NewRequest("GET", "/api/contacts", nil)
	router.ServeHTTP(listRecorder, listRequest)
	assert.Equal(t, http.StatusOK, listRecorder.Code)
	var listBody map[string]interface{}
	json.Unmarshal(listRecorder.Body.Bytes(), &listBody)
	data := listBody["data"].([]interface{})
	if assert.GreaterOrEqual(t, len(data), 3) {
		assert.Equal(t, ids[2], data[0].(map[string]interface{})["id"])
		assert.Equal(t, ids[1], data[1].(map[string]interface{})["id"])
		assert.Equal(t, ids[0], data[2].(map[string]interface{})["id"])
	}

	// clean up
	for _, id := range ids {
		recorder := httptest.NewRecorder()
		request, _ := http.NewRequest("DELETE", "/api/contacts/"+id, nil)
		router.ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusOK, recorder.Code)
	}
}
