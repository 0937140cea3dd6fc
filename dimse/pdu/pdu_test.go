package pdu

import (
	"bytes"
	"testing"
)

func roundTrip(t *testing.T, p PDU) PDU {
	t.Helper()
	var buf bytes.Buffer
	if err := p.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	return got
}

func TestAssociateRQRoundTrip(t *testing.T) {
	rq := &AssociateRQ{
		ProtocolVersion:    1,
		CalledAETitle:      PadAETitle("STORESCP"),
		CallingAETitle:     PadAETitle("STORESCU"),
		ApplicationContext: "1.2.840.10008.3.1.1.1",
		PresentationContexts: []PresentationContextRQ{
			{
				ID:               1,
				AbstractSyntax:   "1.2.840.10008.5.1.4.1.1.7",
				TransferSyntaxes: []string{"1.2.840.10008.1.2", "1.2.840.10008.1.2.1"},
			},
		},
		UserInfo: UserInformation{
			MaxPDULength:            16384,
			ImplementationClassUID: "1.2.3.4.5",
			ImplementationVersion:  "LUCID_1_0",
		},
	}

	got, ok := roundTrip(t, rq).(*AssociateRQ)
	if !ok {
		t.Fatalf("decoded type %T, want *AssociateRQ", got)
	}
	if TrimAETitle(got.CalledAETitle) != "STORESCP" {
		t.Errorf("CalledAETitle = %q", TrimAETitle(got.CalledAETitle))
	}
	if TrimAETitle(got.CallingAETitle) != "STORESCU" {
		t.Errorf("CallingAETitle = %q", TrimAETitle(got.CallingAETitle))
	}
	if got.ApplicationContext != rq.ApplicationContext {
		t.Errorf("ApplicationContext = %q", got.ApplicationContext)
	}
	if len(got.PresentationContexts) != 1 {
		t.Fatalf("PresentationContexts len = %d", len(got.PresentationContexts))
	}
	pc := got.PresentationContexts[0]
	if pc.ID != 1 || pc.AbstractSyntax != rq.PresentationContexts[0].AbstractSyntax {
		t.Errorf("PresentationContext = %+v", pc)
	}
	if len(pc.TransferSyntaxes) != 2 {
		t.Errorf("TransferSyntaxes = %v", pc.TransferSyntaxes)
	}
	if got.UserInfo.MaxPDULength != 16384 {
		t.Errorf("MaxPDULength = %d", got.UserInfo.MaxPDULength)
	}
	if got.UserInfo.ImplementationClassUID != "1.2.3.4.5" {
		t.Errorf("ImplementationClassUID = %q", got.UserInfo.ImplementationClassUID)
	}
}

func TestAssociateACRoundTrip(t *testing.T) {
	ac := &AssociateAC{
		ProtocolVersion:    1,
		CalledAETitle:      PadAETitle("STORESCP"),
		CallingAETitle:     PadAETitle("STORESCU"),
		ApplicationContext: "1.2.840.10008.3.1.1.1",
		PresentationContexts: []PresentationContextAC{
			{ID: 1, Result: ResultAcceptance, TransferSyntax: "1.2.840.10008.1.2"},
		},
		UserInfo: UserInformation{MaxPDULength: 16384, ImplementationClassUID: "1.2.3.4.5"},
	}

	got, ok := roundTrip(t, ac).(*AssociateAC)
	if !ok {
		t.Fatalf("decoded type %T, want *AssociateAC", got)
	}
	if len(got.PresentationContexts) != 1 || got.PresentationContexts[0].Result != ResultAcceptance {
		t.Errorf("PresentationContexts = %+v", got.PresentationContexts)
	}
	if got.PresentationContexts[0].TransferSyntax != "1.2.840.10008.1.2" {
		t.Errorf("TransferSyntax = %q", got.PresentationContexts[0].TransferSyntax)
	}
}

func TestAssociateRJRoundTrip(t *testing.T) {
	rj := &AssociateRJ{Result: RJResultPermanent, Source: RJSourceServiceUser, Reason: 1}
	got, ok := roundTrip(t, rj).(*AssociateRJ)
	if !ok {
		t.Fatalf("decoded type %T, want *AssociateRJ", got)
	}
	if *got != *rj {
		t.Errorf("got %+v, want %+v", got, rj)
	}
}

func TestDataTFRoundTrip(t *testing.T) {
	dtf := &DataTF{Items: []PresentationDataValue{
		{PresentationContextID: 1, MessageControlHeader: controlCommand | controlLastFragment, Data: []byte{1, 2, 3}},
	}}
	got, ok := roundTrip(t, dtf).(*DataTF)
	if !ok {
		t.Fatalf("decoded type %T, want *DataTF", got)
	}
	if len(got.Items) != 1 || !got.Items[0].IsCommand() || !got.Items[0].IsLastFragment() {
		t.Errorf("Items = %+v", got.Items)
	}
	if !bytes.Equal(got.Items[0].Data, []byte{1, 2, 3}) {
		t.Errorf("Data = %v", got.Items[0].Data)
	}
}

func TestReleaseRoundTrip(t *testing.T) {
	if _, ok := roundTrip(t, &ReleaseRQ{}).(*ReleaseRQ); !ok {
		t.Fatal("ReleaseRQ round trip failed")
	}
	if _, ok := roundTrip(t, &ReleaseRP{}).(*ReleaseRP); !ok {
		t.Fatal("ReleaseRP round trip failed")
	}
}

func TestAbortRoundTrip(t *testing.T) {
	a := &Abort{Source: AbortSourceServiceProvider, Reason: AbortReasonUnexpectedPDU}
	got, ok := roundTrip(t, a).(*Abort)
	if !ok {
		t.Fatalf("decoded type %T, want *Abort", got)
	}
	if *got != *a {
		t.Errorf("got %+v, want %+v", got, a)
	}
}

func TestReadUnknownPDUType(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0, 0, 0, 0, 0})
	if _, err := Read(&buf); err == nil {
		t.Fatal("expected error for unknown PDU type")
	}
}
