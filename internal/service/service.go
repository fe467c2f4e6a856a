// Package service wires the contacts REST API: it owns the database
// handle, the prepared statements, and the gin router with all endpoint
// handlers.
package service

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"

	"gitlab.com/dirk.krummacker/contact-book/internal/mapper"
	"gitlab.com/dirk.krummacker/contact-book/internal/model"
	wire "gitlab.com/dirk.krummacker/contact-book/pkg/model"
)

// db is a handle to the database.
var db *sqlx.DB

// insert is a prepared statement for creating a contact on the database.
var insert *sqlx.NamedStmt

// selectAll is a prepared statement for selecting all contacts, most
// recently created first.
var selectAll *sqlx.Stmt

// selectWhereId is a prepared statement for selecting the contact with a
// given id.
var selectWhereId *sqlx.Stmt

// update is a prepared statement replacing all mapped columns of a contact
// and refreshing its updated_at timestamp.
var update *sqlx.NamedStmt

// deleteWhereId is a prepared statement for deleting the contact with a
// given id.
var deleteWhereId *sqlx.Stmt

// schema is the create-if-absent definition of the contacts table. It is
// the only DDL the service ever executes.
const schema = `
	CREATE TABLE IF NOT EXISTS contacts (
		id BIGINT NOT NULL AUTO_INCREMENT,
		full_name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		phone VARCHAR(64) NULL,
		cell VARCHAR(64) NULL,
		registered_date VARCHAR(35) NOT NULL,
		age INT NULL,
		street_number BIGINT NOT NULL,
		street_name VARCHAR(255) NOT NULL,
		city VARCHAR(255) NULL,
		country VARCHAR(255) NULL,
		picture_large VARCHAR(512) NOT NULL,
		picture_medium VARCHAR(512) NOT NULL,
		picture_thumbnail VARCHAR(512) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id)
	)`

// CreateDatabase initializes and returns a database connection. The
// connection parameters are taken from the system's environment variables.
// The clientFoundRows option makes UPDATE report matched rows instead of
// changed rows, so that a content-identical update is not mistaken for a
// missing contact.
func CreateDatabase() *sql.DB {
	name := os.Getenv("DBNAME")
	if name == "" {
		name = "contacts"
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&clientFoundRows=true",
		os.Getenv("DBUSER"), os.Getenv("DBPWD"), os.Getenv("DBHOST"), name)
	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		log.WithError(err).Fatal("could not open the database")
	}
	return sqlDB
}

// EnsureSchema creates the contacts table if it is absent. There is no
// further migration mechanism.
func EnsureSchema(sqlDB *sql.DB) error {
	_, err := sqlDB.Exec(schema)
	return err
}

// SetupDatabaseWrapper initializes the sqlx database wrapper with the
// specified sql database. It then prepares all statements. The database
// argument can be a real database for production use or a mock database
// within unit tests.
func SetupDatabaseWrapper(sqlDB *sql.DB) {
	var err error
	db = sqlx.NewDb(sqlDB, "mysql")

	// Prepared statements offer a significant speed increase if executed many times.
	insert, err = db.PrepareNamed(`
		INSERT INTO contacts (full_name, email, phone, cell, registered_date, age,
			street_number, street_name, city, country,
			picture_large, picture_medium, picture_thumbnail)
		VALUES (:full_name, :email, :phone, :cell, :registered_date, :age,
			:street_number, :street_name, :city, :country,
			:picture_large, :picture_medium, :picture_thumbnail)
	`)
	if err != nil {
		log.WithError(err).Fatal("preparing the insert statement failed")
	}
	selectAll, err = db.Preparex(`
		SELECT * FROM contacts ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		log.WithError(err).Fatal("preparing the select-all statement failed")
	}
	selectWhereId, err = db.Preparex(`
		SELECT * FROM contacts WHERE id=?
	`)
	if err != nil {
		log.WithError(err).Fatal("preparing the select statement failed")
	}
	update, err = db.PrepareNamed(`
		UPDATE contacts
		SET full_name=:full_name, email=:email, phone=:phone, cell=:cell,
			registered_date=:registered_date, age=:age,
			street_number=:street_number, street_name=:street_name,
			city=:city, country=:country,
			picture_large=:picture_large, picture_medium=:picture_medium,
			picture_thumbnail=:picture_thumbnail,
			updated_at=CURRENT_TIMESTAMP
		WHERE id=:id
	`)
	if err != nil {
		log.WithError(err).Fatal("preparing the update statement failed")
	}
	deleteWhereId, err = db.Preparex(`
		DELETE FROM contacts WHERE id=?
	`)
	if err != nil {
		log.WithError(err).Fatal("preparing the delete statement failed")
	}
}

// SetupHttpRouter initializes the REST API router and registers all
// endpoints under the /api prefix.
func SetupHttpRouter() *gin.Engine {
	router := gin.New()
	if !strings.EqualFold(os.Getenv("GIN_LOGGING"), "off") {
		router.Use(gin.Logger())
	}
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.WithField("panic", recovered).Error("handler panicked")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}))
	api := router.Group("/api")
	api.GET("/health", healthCheck)
	api.GET("/contacts", findContacts)
	api.POST("/contacts", createContact)
	api.GET("/contacts/:id", findContactByID)
	api.PUT("/contacts/:id", updateContactByID)
	api.DELETE("/contacts/:id", deleteContactByID)
	router.NoRoute(func(c *gin.Context) {
		c.IndentedJSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})
	return router
}

// healthCheck reports liveness without touching the database.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/health
func healthCheck(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "contact service is up",
		"timestamp": time.Now().UTC(),
	})
}

// findContacts responds with the list of all contacts as JSON, most
// recently created first.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts
func findContacts(c *gin.Context) {
	var rows []model.ContactRow
	if err := selectAll.Select(&rows); err != nil {
		respondDatastoreError(c, err)
		return
	}
	contacts := make([]wire.Contact, 0, len(rows))
	for _, row := range rows {
		contacts = append(contacts, mapper.RowToContact(row))
	}
	c.IndentedJSON(http.StatusOK, gin.H{
		"success": true,
		"data":    contacts,
		"count":   len(contacts),
	})
}

// findContactByID locates the contact whose ID value matches the id
// parameter of the request URL, then returns that contact as a response.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts/56
func findContactByID(c *gin.Context) {
	id := c.Param("id")
	if _, errConv := strconv.Atoi(id); errConv != nil {
		respondNotFound(c)
		return
	}
	contact, err := loadContact(id)
	if errors.Is(err, sql.ErrNoRows) {
		respondNotFound(c)
		return
	}
	if err != nil {
		respondDatastoreError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"success": true, "data": contact})
}

// createContact validates the contact specified in the request's JSON,
// inserts it into the database, and responds with the full contact data
// including the newly assigned id.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts --request "POST" --include --header "Content-Type: application/json" --data '{"fullName": "Hans Wurst", "email": "hans@example.com", "registeredDate": "2015-03-02T00:00:00Z", "address": {"street": {"number": 4711, "name": "Musterstraße"}}, "picture": {"large": "https://example.com/l.jpg", "medium": "https://example.com/m.jpg", "thumbnail": "https://example.com/t.jpg"}}'
func createContact(c *gin.Context) {
	var input model.ContactInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid JSON"})
		return
	}
	if verr := input.Validate(); verr != nil {
		respondValidationError(c, verr)
		return
	}
	row, verr := mapper.ContactToRow(input)
	if verr != nil {
		respondValidationError(c, verr)
		return
	}
	result, err := insert.Exec(row)
	if err != nil {
		respondDatastoreError(c, err)
		return
	}
	id, err := result.LastInsertId()
	if err != nil {
		respondDatastoreError(c, err)
		return
	}

	// In the HTTP response, return the row as stored, including the
	// database-assigned timestamps.
	created, err := loadContact(strconv.FormatInt(id, 10))
	if err != nil {
		respondDatastoreError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    created,
		"message": "Contact created",
	})
}

// updateContactByID replaces all mapped fields of the contact whose ID
// value matches the id parameter of the request URL and finally responds
// with the new version of the contact. Unlike creation, the id stays
// unchanged and updated_at is refreshed.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts/56 --request "PUT" --include --header "Content-Type: application/json" --data @contact.json
func updateContactByID(c *gin.Context) {
	id := c.Param("id")
	idAsInt, errConv := strconv.ParseInt(id, 10, 64)
	if errConv != nil {
		respondNotFound(c)
		return
	}

	var input model.ContactInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid JSON"})
		return
	}
	if verr := input.Validate(); verr != nil {
		respondValidationError(c, verr)
		return
	}
	row, verr := mapper.ContactToRow(input)
	if verr != nil {
		respondValidationError(c, verr)
		return
	}
	row.Id = idAsInt

	result, err := update.Exec(row)
	if err != nil {
		respondDatastoreError(c, err)
		return
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		respondDatastoreError(c, err)
		return
	}
	if rowsAffected == 0 {
		respondNotFound(c)
		return
	}

	// In the HTTP response, return the full contact after the update.
	updated, err := loadContact(id)
	if err != nil {
		respondDatastoreError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{
		"success": true,
		"data":    updated,
		"message": "Contact updated",
	})
}

// deleteContactByID deletes the contact whose ID value matches the id
// parameter of the request URL from the database. The delete is hard,
// there are no tombstones.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts/56 --request "DELETE"
func deleteContactByID(c *gin.Context) {
	id := c.Param("id")
	if _, errConv := strconv.Atoi(id); errConv != nil {
		respondNotFound(c)
		return
	}

	result, err := deleteWhereId.Exec(id)
	if err != nil {
		respondDatastoreError(c, err)
		return
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		respondDatastoreError(c, err)
		return
	}
	if rowsAffected == 0 {
		respondNotFound(c)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"success": true, "message": "Contact deleted"})
}

// loadContact fetches a single row by id and maps it to document form.
func loadContact(id string) (wire.Contact, error) {
	var row model.ContactRow
	if err := selectWhereId.Get(&row, id); err != nil {
		return wire.Contact{}, err
	}
	return mapper.RowToContact(row), nil
}

// respondValidationError answers a request that failed validation. The
// echoed input is only present for rejected registered dates.
func respondValidationError(c *gin.Context, verr *model.ValidationError) {
	body := gin.H{"error": verr.Message}
	if verr.Received != "" {
		body["received"] = verr.Received
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}

// respondNotFound answers a request referencing an id that does not exist.
func respondNotFound(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Contact not found"})
}

// respondDatastoreError answers a request that failed on the database.
func respondDatastoreError(c *gin.Context, err error) {
	log.WithError(err).Error("database operation failed")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
