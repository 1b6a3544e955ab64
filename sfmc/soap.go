package sfmc

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"

	"github.com/nsiqueira/sfmcli/catalog"
)

// EntityTypeDataExtension is the SOAP object type of data extension
// catalog metadata.
const EntityTypeDataExtension = "DataExtension"

// DataExtensionFields are the two properties projected on catalog retrieves.
var DataExtensionFields = []string{"Name", "CustomerKey"}

const retrieveEnvelopeTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope" xmlns:a="http://schemas.xmlsoap.org/ws/2004/08/addressing" xmlns:u="http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-utility-1.0.xsd">
    <s:Header>
        <a:Action s:mustUnderstand="1">Retrieve</a:Action>
        <a:To s:mustUnderstand="1">%s/Service.asmx</a:To>
        <fueloauth xmlns="http://exacttarget.com">%s</fueloauth>
    </s:Header>
    <s:Body xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xmlns:xsd="http://www.w3.org/2001/XMLSchema">
        <RetrieveRequestMsg xmlns="http://exacttarget.com/wsdl/partnerAPI">
            <RetrieveRequest>
                <ObjectType>%s</ObjectType>
%s            </RetrieveRequest>
        </RetrieveRequestMsg>
    </s:Body>
</s:Envelope>`

const performEnvelopeTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope" xmlns:a="http://schemas.xmlsoap.org/ws/2004/08/addressing" xmlns:u="http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-utility-1.0.xsd">
    <s:Header>
        <a:Action s:mustUnderstand="1">Perform</a:Action>
        <a:To s:mustUnderstand="1">%s/Service.asmx</a:To>
        <fueloauth xmlns="http://exacttarget.com">%s</fueloauth>
    </s:Header>
    <s:Body xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xmlns:xsd="http://www.w3.org/2001/XMLSchema">
        <PerformRequestMsg xmlns="http://exacttarget.com/wsdl/partnerAPI" xmlns:ns2="urn:fault.partner.exacttarget.com">
            <Action>ClearData</Action>
            <Definitions>
                <Definition xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xsi:type="DataExtension">
                    <CustomerKey>%s</CustomerKey>
                </Definition>
            </Definitions>
        </PerformRequestMsg>
    </s:Body>
</s:Envelope>`

type retrieveRow struct {
	Name        string `xml:"Name"`
	CustomerKey string `xml:"CustomerKey"`
}

type retrieveResponseEnvelope struct {
	Body struct {
		Response struct {
			OverallStatus string        `xml:"OverallStatus"`
			Results       []retrieveRow `xml:"Results"`
		} `xml:"RetrieveResponseMsg"`
	} `xml:"Body"`
}

type performResponseEnvelope struct {
	Body struct {
		Response struct {
			OverallStatus string `xml:"OverallStatus"`
		} `xml:"PerformResponseMsg"`
	} `xml:"Body"`
}

func xmlEscape(value string) string {
	var buf bytes.Buffer
	// EscapeText only fails on a failing writer, which bytes.Buffer is not.
	xml.EscapeText(&buf, []byte(value))
	return buf.String()
}

// RetrieveDataExtensions lists the data extension catalog of the
// environment, projecting name and external key.
func (c *Client) RetrieveDataExtensions(ctx context.Context) ([]catalog.Row, error) {
	return c.Retrieve(ctx, EntityTypeDataExtension, DataExtensionFields)
}

// Retrieve issues a SOAP RetrieveRequestMsg for the given object type and
// properties and returns the result rows in response order. Continuation
// requests for truncated result sets are not issued.
func (c *Client) Retrieve(ctx context.Context, objectType string, properties []string) ([]catalog.Row, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var props bytes.Buffer
	for _, property := range properties {
		fmt.Fprintf(&props, "                <Properties>%s</Properties>\n", xmlEscape(property))
	}

	envelope := fmt.Sprintf(retrieveEnvelopeTemplate, c.SOAPBaseURL, xmlEscape(token), xmlEscape(objectType), props.String())

	body, err := c.soapCall(ctx, envelope)
	if err != nil {
		return nil, newError("RetrieveError", fmt.Sprintf("retrieve %s", objectType), err)
	}

	var response retrieveResponseEnvelope
	if err := xml.Unmarshal(body, &response); err != nil {
		return nil, newError("RetrieveError", "decode retrieve response", err)
	}

	status := response.Body.Response.OverallStatus
	if status != "OK" && status != "MoreDataAvailable" {
		return nil, newError("RetrieveError", fmt.Sprintf("retrieve %s", objectType), fmt.Errorf("overall status %q", status))
	}

	rows := make([]catalog.Row, 0, len(response.Body.Response.Results))
	for _, result := range response.Body.Response.Results {
		rows = append(rows, catalog.Row{
			Name:        result.Name,
			CustomerKey: result.CustomerKey,
		})
	}

	return rows, nil
}

// ClearDataExtension removes all rows of a data extension via a SOAP
// Perform ClearData request.
func (c *Client) ClearDataExtension(ctx context.Context, externalKey string) error {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return err
	}

	envelope := fmt.Sprintf(performEnvelopeTemplate, c.SOAPBaseURL, xmlEscape(token), xmlEscape(externalKey))

	body, err := c.soapCall(ctx, envelope)
	if err != nil {
		return newError("PerformError", fmt.Sprintf("clear data extension %s", externalKey), err)
	}

	var response performResponseEnvelope
	if err := xml.Unmarshal(body, &response); err != nil {
		return newError("PerformError", "decode perform response", err)
	}

	if status := response.Body.Response.OverallStatus; status != "OK" {
		return newError("PerformError", fmt.Sprintf("clear data extension %s", externalKey), fmt.Errorf("overall status %q", status))
	}

	return nil
}

func (c *Client) soapCall(ctx context.Context, envelope string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.SOAPBaseURL+"/Service.asmx", bytes.NewReader([]byte(envelope)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/soap+xml; charset=UTF-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return body, nil
}
